// Package rowan is a retained-mode UI scene graph with render-result caching
// and buffer pooling.
//
// Rowan sits between a declarative node tree and a pixel-producing backend.
// Each frame it computes the minimal set of nodes that must be re-rendered,
// reuses previously rendered pixel buffers whenever a node's inputs are
// unchanged, recycles scratch render targets instead of reallocating them,
// and groups similar draw operations for combined dispatch.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	store := rowan.NewStore()
//	root := store.Create(rowan.KindContainer, rowan.Props{}, rowan.Style{}, rowan.Rect{Width: 640, Height: 480})
//	// ... build nodes under root ...
//	engine := rowan.NewEngine(rowan.CacheConfig{}, rowan.PoolConfig{})
//	rowan.Run(engine, store, root, rowan.DefaultTheme(), rowan.RunConfig{
//		Title: "My App", Width: 640, Height: 480,
//	})
//
// For full control, pick a backend yourself and drive frames directly:
//
//	backend := rowan.NewHeadlessBackend()
//	backend.Initialize(640, 480)
//	engine.Resize(640, 480)
//	engine.RenderFrame(store, root, rowan.DefaultTheme(), backend)
//
// # Scene graph
//
// Every visual element is a node owned by a [Store]. Nodes are addressed by
// stable [NodeID] values that are never reused while the store is loaded.
// Mutating a node marks it and all its ancestors dirty; the next
// [Engine.RenderFrame] re-renders exactly the dirty subtree, probing the
// [ResultCache] for every node so that structurally identical content is
// never rasterized twice.
//
//	label := store.Create(rowan.KindText, rowan.Props{Text: "Score: 0"}, rowan.Style{},
//		rowan.Rect{X: 10, Y: 10, Width: 200, Height: 24})
//	store.AddChild(root, label)
//
// # Key features
//
// Rowan includes hash-based render memoization with LRU, TTL and
// memory-budget eviction, a reuse-by-shape buffer pool, style-grouped
// rectangle batching, frame transitions (cross-fade, slide, zoom via
// [gween] easings), JSON tree snapshots, an adaptive quality valve, and a
// backend fallback chain ending in a headless recorder for tests and
// server-side use. The interactive backend runs on [Ebitengine].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package rowan
