package rowan

import "testing"

// --- Steady-state hot paths. The interesting number in each is allocs/op:
// memoized hashes, cache hits, and pool reuse should all be allocation-light.

func BenchmarkHashMemoized(b *testing.B) {
	s := NewStore()
	id := s.Create(KindText,
		Props{Text: "benchmark label", Extra: map[string]string{"role": "hud"}},
		Style{Fill: ColorWhite, FontSize: 14, Opacity: 1},
		Rect{10, 10, 120, 20})
	_, _ = s.HashFor(id)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = s.HashFor(id)
	}
}

func BenchmarkHashRecompute(b *testing.B) {
	s := NewStore()
	id := s.Create(KindText,
		Props{Text: "benchmark label", Extra: map[string]string{"role": "hud"}},
		Style{Fill: ColorWhite, FontSize: 14, Opacity: 1},
		Rect{10, 10, 120, 20})

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = s.MarkDirty(id)
		s.MarkClean(id)
		_, _ = s.HashFor(id)
	}
}

func BenchmarkMarkDirtyDeepTree(b *testing.B) {
	s := NewStore()
	ids := make([]NodeID, 50)
	for i := range ids {
		ids[i] = s.Create(KindContainer, Props{}, Style{}, Rect{})
		if i > 0 {
			_ = s.AddChild(ids[i-1], ids[i])
		}
	}
	leaf := ids[len(ids)-1]

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, id := range ids {
			s.MarkClean(id)
		}
		_ = s.MarkDirty(leaf)
	}
}

func BenchmarkCacheHit(b *testing.B) {
	c := NewResultCache(CacheConfig{})
	buf := NewBuffer(64, 64, FormatRGBA)
	var h Hash
	h[0] = 1
	_ = c.Put(h, buf)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if c.Get(h) == nil {
			b.Fatal("unexpected miss")
		}
	}
}

func BenchmarkCachePutEvicting(b *testing.B) {
	c := NewResultCache(CacheConfig{MaxEntries: 64})
	buf := NewBuffer(32, 32, FormatRGBA)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var h Hash
		h[0] = byte(i)
		h[1] = byte(i >> 8)
		h[2] = byte(i >> 16)
		_ = c.Put(h, buf)
	}
}

func BenchmarkPoolAcquireRelease(b *testing.B) {
	p := NewBufferPool(PoolConfig{})
	p.Release(p.Acquire(64, 64, FormatRGBA))

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf := p.Acquire(64, 64, FormatRGBA)
		p.Release(buf)
	}
}

func BenchmarkBatcherFlush100Rects(b *testing.B) {
	batcher := NewBatcher()
	backend := NewHeadlessBackend()
	_ = backend.Initialize(512, 512)
	dst := NewBuffer(512, 512, FormatRGBA)
	style := ResolvedStyle{Fill: ColorWhite, FontSize: 14, Opacity: 1}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for j := 0; j < 100; j++ {
			batcher.Add(KindRect, batchItem{
				id:     NodeID(j + 1),
				layout: Rect{float64(j % 10 * 50), float64(j / 10 * 50), 40, 40},
				style:  style,
			})
		}
		batcher.Flush(dst, backend)
		backend.ResetCalls()
	}
}

func BenchmarkRenderFrameAllCached(b *testing.B) {
	e := NewEngine(CacheConfig{}, PoolConfig{})
	e.Resize(256, 256)
	backend := NewHeadlessBackend()
	_ = backend.Initialize(256, 256)
	theme := DefaultTheme()

	s := NewStore()
	root := s.Create(KindContainer, Props{}, Style{}, Rect{0, 0, 256, 256})
	for i := 0; i < 20; i++ {
		id := s.Create(KindText,
			Props{Text: "node"},
			Style{},
			Rect{float64(i % 5 * 50), float64(i / 5 * 30), 40, 20})
		_ = s.AddChild(root, id)
	}
	_ = e.RenderFrame(s, root, theme, backend)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = s.MarkDirty(root)
		_ = e.RenderFrame(s, root, theme, backend)
	}
}

func BenchmarkDiffSmallState(b *testing.B) {
	old := map[string]any{
		"score":  10,
		"player": map[string]any{"hp": 100, "mp": 50},
		"items":  []any{"sword", "shield", "potion"},
	}
	new := map[string]any{
		"score":  11,
		"player": map[string]any{"hp": 100, "mp": 50},
		"items":  []any{"sword", "shield", "potion"},
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Diff(old, new)
	}
}
