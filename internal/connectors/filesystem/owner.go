package filesystem

import (
	"os/user"
	"strconv"
	"sync"
	"time"
)

// fileStat holds the platform specific parts of a file's metadata.
type fileStat struct {
	ok       bool
	uid      uint32
	gid      uint32
	created  time.Time
	accessed time.Time
}

// ownerCache resolves numeric ids to names once per id.
type ownerCache struct {
	mu     sync.Mutex
	users  map[uint32]string
	groups map[uint32]string
}

func newOwnerCache() *ownerCache {
	return &ownerCache{
		users:  make(map[uint32]string),
		groups: make(map[uint32]string),
	}
}

// user returns the user name of uid, or the id itself when it has no name.
func (o *ownerCache) user(uid uint32) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if name, ok := o.users[uid]; ok {
		return name
	}
	id := strconv.FormatUint(uint64(uid), 10)
	name := id
	if u, err := user.LookupId(id); err == nil {
		name = u.Username
	}
	o.users[uid] = name
	return name
}

// group returns the group name of gid, or the id itself when it has no name.
func (o *ownerCache) group(gid uint32) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if name, ok := o.groups[gid]; ok {
		return name
	}
	id := strconv.FormatUint(uint64(gid), 10)
	name := id
	if g, err := user.LookupGroupId(id); err == nil {
		name = g.Name
	}
	o.groups[gid] = name
	return name
}
