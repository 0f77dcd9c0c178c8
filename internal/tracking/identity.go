package tracking

import (
	"fmt"
	"strconv"
	"strings"
)

// Identity identifies one monitored Flink job across watch, poll and cache.
//
// Namespace and Name come from the cluster (Name is the Flink cluster-id,
// which is also the jobmanager Deployment name); AppID is assigned by the
// console. Identity is comparable and is used directly as a map key.
type Identity struct {
	Namespace string
	Name      string
	AppID     int64
}

// NewIdentity creates an Identity.
func NewIdentity(namespace, name string, appID int64) Identity {
	return Identity{Namespace: namespace, Name: name, AppID: appID}
}

// String returns the canonical "namespace/name#appId" form.
func (id Identity) String() string {
	return id.Namespace + "/" + id.Name + "#" + strconv.FormatInt(id.AppID, 10)
}

// IsZero reports whether the identity has no fields set.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// TrackingIdentity makes Identity a Subject.
func (id Identity) TrackingIdentity() Identity {
	return id
}

// ParseIdentity parses the "namespace/name=appId" form accepted on the
// command line, as well as the canonical "namespace/name#appId" form.
func ParseIdentity(s string) (Identity, error) {
	sep := strings.LastIndexAny(s, "=#")
	if sep < 0 {
		return Identity{}, fmt.Errorf("invalid identity %q: missing application id", s)
	}
	appID, err := strconv.ParseInt(s[sep+1:], 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid identity %q: bad application id: %w", s, err)
	}

	ns, name, ok := strings.Cut(s[:sep], "/")
	if !ok || ns == "" || name == "" {
		return Identity{}, fmt.Errorf("invalid identity %q: expected namespace/name", s)
	}
	return NewIdentity(ns, name, appID), nil
}

// Subject is implemented by anything that can name the job it acts on.
// Console-side arguments (application records, cancel requests, ...)
// implement it so they can flow through RefreshTracking.
type Subject interface {
	TrackingIdentity() Identity
}
