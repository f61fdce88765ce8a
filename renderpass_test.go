package softvk

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewRenderPass(t *testing.T) {
	color := AttachmentDescription{Format: gputypes.TextureFormatRGBA8Unorm}
	depth := AttachmentDescription{Format: gputypes.TextureFormatDepth24PlusStencil8}

	tests := []struct {
		name      string
		subpasses []SubpassDescription
		wantErr   error
	}{
		{"valid", []SubpassDescription{{ColorAttachments: []int{0}, DepthStencilAttachment: 1}}, nil},
		{"no depth", []SubpassDescription{{ColorAttachments: []int{0}, DepthStencilAttachment: AttachmentUnused}}, nil},
		{"no subpasses", nil, ErrInvalidDescriptor},
		{"color out of range", []SubpassDescription{{ColorAttachments: []int{2}, DepthStencilAttachment: AttachmentUnused}}, ErrAttachment},
		{"depth as color", []SubpassDescription{{ColorAttachments: []int{1}, DepthStencilAttachment: AttachmentUnused}}, ErrAttachment},
		{"color as depth", []SubpassDescription{{DepthStencilAttachment: 0}}, ErrAttachment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRenderPass([]AttachmentDescription{color, depth}, tt.subpasses)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("NewRenderPass() = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewRenderPass() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewFramebuffer(t *testing.T) {
	pass, err := NewRenderPass(
		[]AttachmentDescription{{Format: gputypes.TextureFormatRGBA8Unorm}, {Format: gputypes.TextureFormatRGBA8Unorm}},
		[]SubpassDescription{{ColorAttachments: []int{0, 1}, DepthStencilAttachment: AttachmentUnused}},
	)
	if err != nil {
		t.Fatal(err)
	}
	big := mustImage(t, 8, 4, gputypes.TextureFormatRGBA8Unorm).CreateView()
	small := mustImage(t, 4, 6, gputypes.TextureFormatRGBA8Unorm).CreateView()
	wrong := mustImage(t, 4, 4, gputypes.TextureFormatBGRA8Unorm).CreateView()

	fb, err := NewFramebuffer(pass, big, small)
	if err != nil {
		t.Fatalf("NewFramebuffer() = %v", err)
	}
	if fb.Width() != 4 || fb.Height() != 4 {
		t.Errorf("size = %dx%d, want 4x4", fb.Width(), fb.Height())
	}
	if fb.RenderPass() != pass || len(fb.Views()) != 2 {
		t.Error("framebuffer does not keep its pass and views")
	}

	if _, err := NewFramebuffer(pass, big); !errors.Is(err, ErrAttachment) {
		t.Errorf("NewFramebuffer(one view) = %v, want ErrAttachment", err)
	}
	if _, err := NewFramebuffer(pass, big, wrong); !errors.Is(err, ErrAttachment) {
		t.Errorf("NewFramebuffer(format mismatch) = %v, want ErrAttachment", err)
	}
	if _, err := NewFramebuffer(pass, big, nil); !errors.Is(err, ErrAttachment) {
		t.Errorf("NewFramebuffer(nil view) = %v, want ErrAttachment", err)
	}
}

func TestSubpasses(t *testing.T) {
	f := newFixture(t, nil)
	set, _ := f.colorSet(t, red)

	first := mustImage(t, 4, 4, gputypes.TextureFormatRGBA8Unorm)
	second := mustImage(t, 4, 4, gputypes.TextureFormatRGBA8Unorm)
	pass, err := NewRenderPass([]AttachmentDescription{
		{Format: gputypes.TextureFormatRGBA8Unorm, LoadOp: gputypes.LoadOpClear},
		{Format: gputypes.TextureFormatRGBA8Unorm, LoadOp: gputypes.LoadOpLoad},
	}, []SubpassDescription{
		{ColorAttachments: []int{0}, DepthStencilAttachment: AttachmentUnused},
		{ColorAttachments: []int{1}, DepthStencilAttachment: AttachmentUnused},
	})
	if err != nil {
		t.Fatal(err)
	}
	fb, err := NewFramebuffer(pass, first.CreateView(), second.CreateView())
	if err != nil {
		t.Fatal(err)
	}

	// The second attachment loads, so its prior contents survive where
	// nothing is drawn.
	second.CreateView().clearColor(green)

	half, err := NewBuffer(gputypes.BufferDescriptor{Size: 36})
	if err != nil {
		t.Fatal(err)
	}
	// Covers the left half of the target only in the second subpass.
	if err := WriteSlice(half, 0, []float32{-1, -1, 0, -1, 1, 0, 0, -1, 0}); err != nil {
		t.Fatal(err)
	}

	cb := NewCommandBuffer()
	cb.BeginRenderPass(fb, ClearValue{Color: gputypes.Color{B: 1, A: 1}})
	cb.BindPipeline(f.pipeline)
	cb.BindDescriptorSets(nil, 0, set)
	cb.BindVertexBuffers(0, []*Buffer{f.vertices}, nil)
	cb.Draw(3, 1, 0, 0)
	cb.NextSubpass()
	cb.BindVertexBuffers(0, []*Buffer{half}, nil)
	cb.Draw(3, 1, 0, 0)
	cb.EndRenderPass()
	if err := cb.End(); err != nil {
		t.Fatalf("End() = %v", err)
	}
	if err := NewQueue().Submit(nil, cb); err != nil {
		t.Fatalf("Submit() = %v", err)
	}

	if got := first.CreateView().ReadColor(3, 3); got != red {
		t.Errorf("first attachment = %v, want red", got)
	}
	if got := second.CreateView().ReadColor(0, 0); got != red {
		t.Errorf("second attachment drawn pixel = %v, want red", got)
	}
	if got := second.CreateView().ReadColor(3, 3); got != green {
		t.Errorf("second attachment untouched pixel = %v, want green", got)
	}
}
