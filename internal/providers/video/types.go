package video

import (
	"context"
)

// AnimationInstruction is the fixed direction given to the video model.
const AnimationInstruction = "Animate this logo with a clean, dynamic, and professional cinematic reveal."

// SubmitRequest starts one animation of a still image.
type SubmitRequest struct {
	Prompt      string
	Image       []byte
	MIMEType    string
	AspectRatio string
	Count       int
	RequestID   string
}

// Operation is the handle of an in-flight animation. It is replaced on every
// refresh.
type Operation struct {
	Name   string
	Done   bool
	Videos []Video
	Err    string
}

// Video references a produced clip.
type Video struct {
	URI      string
	MIMEType string
	Data     []byte
}

// Asset is a fetched clip.
type Asset struct {
	Format string
	Data   []byte
}

// Animator is the contract implemented by all video providers.
type Animator interface {
	Submit(ctx context.Context, req SubmitRequest) (*Operation, error)
	Refresh(ctx context.Context, op *Operation) (*Operation, error)
	Fetch(ctx context.Context, v Video) (*Asset, error)
}
