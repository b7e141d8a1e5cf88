package broker

import (
	"strconv"

	"github.com/olitheolix/azrael-sub000/cluster"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
)

func unmarshalTemplate(doc []byte) (cluster.Template, error) {
	var t cluster.Template
	err := cos.Unmarshal(doc, &t)
	return t, err
}

func unmarshalBody(doc []byte) (cluster.Body, error) {
	var b cluster.Body
	err := cos.Unmarshal(doc, &b)
	return b, err
}

func unmarshalAABB(doc []byte, a *cluster.AABB) error { return cos.Unmarshal(doc, a) }

func idStrings(ids []cluster.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = cos.Uitoa(uint64(id))
	}
	return out
}

func decodeBodies(raw map[string][]byte) (map[cluster.ObjectID]cluster.Body, error) {
	out := make(map[cluster.ObjectID]cluster.Body, len(raw))
	for k, doc := range raw {
		b, err := unmarshalBody(doc)
		if err != nil {
			continue
		}
		out[cluster.ObjectID(atoiOrZero(k))] = b
	}
	return out, nil
}

func atoiOrZero(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
