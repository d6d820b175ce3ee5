// Package loader provides the feature loading system.
//
// Each feature implements the Feature interface: a name, an enabled switch and
// a Load hook that mounts its routes. The Manager keeps features in
// registration order and LoadAll mounts the enabled ones, so features such as
// 'vmsync' and 'integrity' are developed and tested in isolation.
//
//	mgr := loader.NewManager()
//	mgr.Register(vmsync.NewFeature(svc))
//	loaded, err := mgr.LoadAll(app)
package loader
