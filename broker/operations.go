package broker

import (
	"encoding/json"

	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
	"github.com/olitheolix/azrael-sub000/cmn/geom"
)

type operationFunc func(s *Server, data json.RawMessage) (interface{}, error)

// operations is the command set of §4.1 plus getTemplates, keyed by the wire
// cmd name.
var operations = map[string]operationFunc{
	"addTemplates":            opAddTemplates,
	"spawn":                   opSpawn,
	"removeObjects":           opRemoveObjects,
	"setBodyState":            opSetBodyState,
	"setDirectForceAndTorque": opSetDirectForceAndTorque,
	"setBoosterForce":         opSetBoosterForce,
	"controlParts":            opControlParts,
	"getBodyStates":           opGetBodyStates,
	"getAABB":                 opGetAABB,
	"getAllObjectIDs":         opGetAllObjectIDs,
	"getFragments":            opGetFragments,
	"getTemplates":            opGetTemplates,
}

func decode(data json.RawMessage, v interface{}) error {
	if err := cos.Unmarshal(data, v); err != nil {
		return cmn.NewError(cmn.KindBadInput, "decode", err)
	}
	return nil
}

func opAddTemplates(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		Templates []cluster.Template `json:"templates"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.b.AddTemplates(req.Templates)
}

func opSpawn(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		Requests []SpawnRequest `json:"requests"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.b.Spawn(req.Requests)
}

func opRemoveObjects(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		IDs []cluster.ObjectID `json:"ids"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return nil, s.b.RemoveObjects(req.IDs)
}

func opSetBodyState(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		ObjectID cluster.ObjectID         `json:"objectID"`
		Partial  cluster.BodyStatePartial `json:"partial"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return nil, s.b.SetBodyState(req.ObjectID, req.Partial)
}

func opSetDirectForceAndTorque(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		ObjectID cluster.ObjectID `json:"objectID"`
		Force    geom.Vec3        `json:"force"`
		Torque   geom.Vec3        `json:"torque"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return nil, s.b.SetDirectForceAndTorque(req.ObjectID, req.Force, req.Torque)
}

func opSetBoosterForce(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		ObjectID cluster.ObjectID `json:"objectID"`
		Force    geom.Vec3        `json:"force"`
		Torque   geom.Vec3        `json:"torque"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return nil, s.b.SetBoosterForce(req.ObjectID, req.Force, req.Torque)
}

func opControlParts(s *Server, data json.RawMessage) (interface{}, error) {
	var req ControlPartsRequest
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.b.ControlParts(req, s.exitSpeed)
}

func opGetBodyStates(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		IDs []cluster.ObjectID `json:"ids"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.b.GetBodyStates(req.IDs)
}

func opGetAABB(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		IDs []cluster.ObjectID `json:"ids"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.b.GetAABB(req.IDs)
}

func opGetAllObjectIDs(s *Server, _ json.RawMessage) (interface{}, error) {
	return s.b.GetAllObjectIDs()
}

func opGetFragments(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		IDs []cluster.ObjectID `json:"ids"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.b.GetFragments(req.IDs)
}

func opGetTemplates(s *Server, data json.RawMessage) (interface{}, error) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decode(data, &req); err != nil {
		return nil, err
	}
	return s.b.GetTemplates(req.IDs)
}
