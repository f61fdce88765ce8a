package softvk

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/softvk/internal/codec"
)

// AttachmentUnused marks an absent depth-stencil attachment in a subpass.
const AttachmentUnused = -1

// AttachmentDescription describes one attachment of a render pass.
type AttachmentDescription struct {
	Format  gputypes.TextureFormat
	LoadOp  gputypes.LoadOp
	StoreOp gputypes.StoreOp
	// StencilLoadOp applies to the stencil aspect of depth-stencil formats.
	StencilLoadOp  gputypes.LoadOp
	StencilStoreOp gputypes.StoreOp
}

// SubpassDescription selects the attachments a subpass renders to.
// Color output location i writes ColorAttachments[i].
type SubpassDescription struct {
	ColorAttachments       []int
	DepthStencilAttachment int
}

// RenderPass is an ordered list of attachments and the subpasses that use
// them.
type RenderPass struct {
	attachments []AttachmentDescription
	subpasses   []SubpassDescription
}

// NewRenderPass validates the attachment references of every subpass.
func NewRenderPass(attachments []AttachmentDescription, subpasses []SubpassDescription) (*RenderPass, error) {
	if len(subpasses) == 0 {
		return nil, fmt.Errorf("%w: render pass has no subpasses", ErrInvalidDescriptor)
	}
	for i, sp := range subpasses {
		for _, a := range sp.ColorAttachments {
			if a < 0 || a >= len(attachments) {
				return nil, fmt.Errorf("%w: subpass %d color attachment %d", ErrAttachment, i, a)
			}
			if attachments[a].Format.IsDepthStencil() {
				return nil, fmt.Errorf("%w: subpass %d uses depth attachment %d as color", ErrAttachment, i, a)
			}
		}
		a := sp.DepthStencilAttachment
		if a == AttachmentUnused {
			continue
		}
		if a < 0 || a >= len(attachments) || !attachments[a].Format.IsDepthStencil() {
			return nil, fmt.Errorf("%w: subpass %d depth-stencil attachment %d", ErrAttachment, i, a)
		}
	}
	return &RenderPass{attachments: attachments, subpasses: subpasses}, nil
}

// Attachments returns the attachment descriptions.
func (p *RenderPass) Attachments() []AttachmentDescription { return p.attachments }

// Subpasses returns the subpass descriptions.
func (p *RenderPass) Subpasses() []SubpassDescription { return p.subpasses }

// Framebuffer binds concrete image views to the attachments of a render
// pass.
type Framebuffer struct {
	pass   *RenderPass
	views  []*ImageView
	width  int
	height int
}

// NewFramebuffer pairs views with the attachments of pass by index. All
// views must match their attachment format; the framebuffer size is the
// smallest view size.
func NewFramebuffer(pass *RenderPass, views ...*ImageView) (*Framebuffer, error) {
	if len(views) != len(pass.attachments) {
		return nil, fmt.Errorf("%w: %d views for %d attachments", ErrAttachment, len(views), len(pass.attachments))
	}
	fb := &Framebuffer{pass: pass, views: views}
	for i, v := range views {
		if v == nil {
			return nil, fmt.Errorf("%w: view %d is nil", ErrAttachment, i)
		}
		if want := pass.attachments[i].Format; v.Format() != want {
			return nil, fmt.Errorf("%w: view %d is %s, attachment is %s", ErrAttachment, i, codec.FormatName(v.Format()), codec.FormatName(want))
		}
		if i == 0 || v.Width() < fb.width {
			fb.width = v.Width()
		}
		if i == 0 || v.Height() < fb.height {
			fb.height = v.Height()
		}
	}
	return fb, nil
}

// RenderPass returns the render pass the framebuffer was created for.
func (fb *Framebuffer) RenderPass() *RenderPass { return fb.pass }

// Views returns the attachment views.
func (fb *Framebuffer) Views() []*ImageView { return fb.views }

// Width returns the framebuffer width.
func (fb *Framebuffer) Width() int { return fb.width }

// Height returns the framebuffer height.
func (fb *Framebuffer) Height() int { return fb.height }

// ClearValue is the clear value of one attachment. Color is used for color
// attachments; Depth and Stencil for depth-stencil attachments.
type ClearValue struct {
	Color   gputypes.Color
	Depth   float32
	Stencil uint8
}
