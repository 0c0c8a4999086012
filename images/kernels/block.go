package kernels

import (
	"image"
	"sync"
)

// Options configures a BlockAverage call.
type Options struct {
	Block    int   // Block edge length in pixels. Must be >= 1 and divide both source dimensions.
	Expand   bool  // Fill every pixel of each block instead of emitting one pixel per block.
	Pool     *Pool // Optional buffer pool for dst reuse.
	Parallel bool  // Split block rows across goroutines (good for large single images).
}

// Pool lets callers reuse output buffers across images of the same size.
type Pool struct {
	nrgba sync.Pool // *image.NRGBA
}

// GetNRGBA returns a buffer with the given bounds. Its contents are undefined;
// callers must overwrite every pixel.
func (p *Pool) GetNRGBA(bounds image.Rectangle) *image.NRGBA {
	if p == nil {
		return image.NewNRGBA(bounds)
	}
	if v := p.nrgba.Get(); v != nil {
		img := v.(*image.NRGBA)
		if img.Rect == bounds {
			return img
		}
	}
	return image.NewNRGBA(bounds)
}

// PutNRGBA hands a buffer back to the pool.
func (p *Pool) PutNRGBA(img *image.NRGBA) {
	if p == nil || img == nil {
		return
	}
	p.nrgba.Put(img)
}

// BlockAverage partitions src into Block×Block squares and replaces each with
// the per-channel mean of its pixels.
//
// The mean is the truncated integer quotient of the channel sum and Block²,
// computed independently for R, G, B and A on the raw NRGBA bytes. With
// Expand false the result is (W/Block)×(H/Block); with Expand true it has the
// bounds size of src and every block is uniform.
//
// Source bounds need not start at (0,0). The result always does.
// Dimensions that are not multiples of Block are the caller's problem: the
// trailing partial row/column of blocks is ignored.
func BlockAverage(src *image.NRGBA, opt Options) *image.NRGBA {
	n := opt.Block
	if n < 1 {
		n = 1
	}
	b := src.Rect
	cols := b.Dx() / n
	rows := b.Dy() / n

	var dst *image.NRGBA
	if opt.Expand {
		dst = opt.Pool.GetNRGBA(image.Rect(0, 0, cols*n, rows*n))
	} else {
		dst = opt.Pool.GetNRGBA(image.Rect(0, 0, cols, rows))
	}
	if cols == 0 || rows == 0 {
		return dst
	}

	area := uint32(n * n)
	rowTask := func(by int) {
		// Pix[0] is the pixel at src.Rect.Min, so offsets are relative to it.
		srcRowStart := by * n * src.Stride

		for bx := 0; bx < cols; bx++ {
			var sumR, sumG, sumB, sumA uint32
			for dy := 0; dy < n; dy++ {
				off := srcRowStart + dy*src.Stride + bx*n*4
				p := src.Pix[off : off+n*4 : off+n*4]
				for i := 0; i < len(p); i += 4 {
					sumR += uint32(p[i+0])
					sumG += uint32(p[i+1])
					sumB += uint32(p[i+2])
					sumA += uint32(p[i+3])
				}
			}

			r := uint8(sumR / area)
			g := uint8(sumG / area)
			bl := uint8(sumB / area)
			a := uint8(sumA / area)

			if !opt.Expand {
				off := by*dst.Stride + bx*4
				dst.Pix[off+0] = r
				dst.Pix[off+1] = g
				dst.Pix[off+2] = bl
				dst.Pix[off+3] = a
				continue
			}

			for dy := 0; dy < n; dy++ {
				off := (by*n+dy)*dst.Stride + bx*n*4
				p := dst.Pix[off : off+n*4 : off+n*4]
				for i := 0; i < len(p); i += 4 {
					p[i+0] = r
					p[i+1] = g
					p[i+2] = bl
					p[i+3] = a
				}
			}
		}
	}

	if !opt.Parallel || rows < 4 {
		for by := 0; by < rows; by++ {
			rowTask(by)
		}
		return dst
	}

	// Block rows write disjoint dst ranges, so chunks need no locking.
	chunk := chooseChunk(rows)
	var wg sync.WaitGroup
	for start := 0; start < rows; start += chunk {
		end := start + chunk
		if end > rows {
			end = rows
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for by := s; by < e; by++ {
				rowTask(by)
			}
		}(start, end)
	}
	wg.Wait()

	return dst
}

// chooseChunk picks how many block rows each goroutine handles.
func chooseChunk(n int) int {
	switch {
	case n >= 1024:
		return 64
	case n >= 256:
		return 32
	default:
		return 8
	}
}
