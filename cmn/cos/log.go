// Package cos provides the low-level utilities shared across Azrael's
// components: logging, hashing, JSON, and id generation. Call sites never
// import glog, xxhash or jsoniter directly — same indirection aistore's own
// cmn/cos package uses so the underlying library can be swapped once, here.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"github.com/golang/glog"
)

func Infof(format string, args ...interface{})  { glog.Infof(format, args...) }
func Warnf(format string, args ...interface{})  { glog.Warningf(format, args...) }
func Errorf(format string, args ...interface{}) { glog.Errorf(format, args...) }

func Infoln(args ...interface{})  { glog.Infoln(args...) }
func Errorln(args ...interface{}) { glog.Errorln(args...) }

// Flush forces buffered log lines to disk/stderr; called on clean shutdown.
func Flush() { glog.Flush() }
