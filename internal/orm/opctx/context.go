package opctx

import (
	"context"
	"fmt"
	"sync"
)

// Context is the ambient state of one entity operation. It is
// constructed once per inbound operation, passed explicitly into every
// pipeline call, and never shared across concurrent operations. Tests
// substitute stub services through the same options.
type Context struct {
	actor    *Actor
	entities map[string]EntityService
	fs       FilesystemService
	acl      AccessControlService

	// Resolved node handles are cached for the duration of the one
	// operation, keyed by selector. External reads are side-effect free
	// and safe to repeat, so the cache is purely a fan-out saver.
	nodeMu sync.Mutex
	nodes  map[string]NodeHandle
}

// Option configures a Context during construction
type Option func(*Context)

// WithActor sets the authenticated actor
func WithActor(actor *Actor) Option {
	return func(c *Context) { c.actor = actor }
}

// WithEntityService registers an entity lookup service under a name
func WithEntityService(name string, svc EntityService) Option {
	return func(c *Context) { c.entities[name] = svc }
}

// WithFilesystem sets the filesystem service
func WithFilesystem(fs FilesystemService) Option {
	return func(c *Context) { c.fs = fs }
}

// WithAccessControl sets the access-control service
func WithAccessControl(acl AccessControlService) Option {
	return func(c *Context) { c.acl = acl }
}

// New creates an operation context
func New(opts ...Option) *Context {
	c := &Context{
		entities: make(map[string]EntityService),
		nodes:    make(map[string]NodeHandle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Actor returns the authenticated actor, or nil when the operation is
// unauthenticated
func (c *Context) Actor() *Actor {
	return c.actor
}

// EntityService returns the entity lookup service registered under name
func (c *Context) EntityService(name string) (EntityService, error) {
	svc, ok := c.entities[name]
	if !ok {
		return nil, fmt.Errorf("no entity service registered under %q", name)
	}
	return svc, nil
}

// Filesystem returns the filesystem service
func (c *Context) Filesystem() (FilesystemService, error) {
	if c.fs == nil {
		return nil, fmt.Errorf("no filesystem service registered")
	}
	return c.fs, nil
}

// AccessControl returns the access-control service
func (c *Context) AccessControl() (AccessControlService, error) {
	if c.acl == nil {
		return nil, fmt.Errorf("no access-control service registered")
	}
	return c.acl, nil
}

// ResolveNode resolves a node selector through the filesystem service,
// consulting the operation-scoped cache first. Fields of one record may
// resolve concurrently; the lock is not held across the service call,
// so two concurrent misses on the same selector may both hit the
// service. Resolution has no side effects, so that is only redundant
// work.
func (c *Context) ResolveNode(ctx context.Context, sel NodeSelector) (NodeHandle, error) {
	key := sel.CacheKey()

	c.nodeMu.Lock()
	node, ok := c.nodes[key]
	c.nodeMu.Unlock()
	if ok {
		return node, nil
	}

	fs, err := c.Filesystem()
	if err != nil {
		return nil, err
	}

	node, err = fs.Node(ctx, sel)
	if err != nil {
		return nil, err
	}

	c.nodeMu.Lock()
	c.nodes[key] = node
	c.nodeMu.Unlock()
	return node, nil
}
