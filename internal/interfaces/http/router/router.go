// Package router mounts the service's route modules onto a gin engine, under the
// versioned API prefix and, for paths older clients still call, at the root.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Mounter attaches its routes below a gin router
type Mounter interface {
	Mount(r gin.IRouter)
}

// Router collects modules and installs them on the engine in Build
type Router struct {
	engine  *gin.Engine
	version string
	apiMW   []gin.HandlerFunc
	api     []Mounter
	legacy  []Mounter
}

// New returns a Router serving the API under /api/<version>; an empty version means v1
func New(engine *gin.Engine, version string) *Router {
	if version == "" {
		version = "v1"
	}
	return &Router{engine: engine, version: version}
}

// Prefix is the versioned API path, e.g. /api/v1
func (r *Router) Prefix() string {
	return path.Join("/api", r.version)
}

// Use adds middleware to the versioned API only
func (r *Router) Use(mw ...gin.HandlerFunc) *Router {
	r.apiMW = append(r.apiMW, mw...)
	return r
}

// API mounts modules under the versioned prefix
func (r *Router) API(modules ...Mounter) *Router {
	r.api = append(r.api, modules...)
	return r
}

// Legacy mounts modules at the engine root as well
func (r *Router) Legacy(modules ...Mounter) *Router {
	r.legacy = append(r.legacy, modules...)
	return r
}

// Build installs every collected module on the engine. Call it once.
func (r *Router) Build() {
	api := r.engine.Group(r.Prefix(), r.apiMW...)
	for _, m := range r.api {
		m.Mount(api)
	}
	for _, m := range r.legacy {
		m.Mount(r.engine)
	}
}

// Module is a named set of routes sharing a path prefix and middleware
type Module struct {
	name   string
	prefix string
	mw     []gin.HandlerFunc
	routes []route
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewModule(name, prefix string) *Module {
	return &Module{name: name, prefix: prefix}
}

func (m *Module) Name() string   { return m.name }
func (m *Module) Prefix() string { return m.prefix }

// Use adds middleware run before every route of the module
func (m *Module) Use(mw ...gin.HandlerFunc) *Module {
	m.mw = append(m.mw, mw...)
	return m
}

func (m *Module) GET(relativePath string, handlers ...gin.HandlerFunc) *Module {
	return m.Handle(http.MethodGet, relativePath, handlers...)
}

func (m *Module) Handle(method, relativePath string, handlers ...gin.HandlerFunc) *Module {
	m.routes = append(m.routes, route{method: method, path: relativePath, handlers: handlers})
	return m
}

// Mount implements Mounter. A module mounted twice shares its middleware instances.
func (m *Module) Mount(r gin.IRouter) {
	g := r.Group(m.prefix, m.mw...)
	for _, rt := range m.routes {
		g.Handle(rt.method, rt.path, rt.handlers...)
	}
}
