package mongo

import "sync/atomic"

// isReplicaSet caches the topology probe Init runs once at startup.
var isReplicaSet atomic.Bool

// IsReplicaSet reports whether the connected deployment is a replica
// set. The value is a startup-time hint and is never refreshed; healthz
// surfaces it for operators.
func IsReplicaSet() bool { return isReplicaSet.Load() }
