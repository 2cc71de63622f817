// Package extractor defines the external collaborators of the distance
// pipeline: the pretrained feature-extraction model, the preprocessing
// step that feeds it, and the lazy batch sources the two populations
// are drawn from.
//
// The core never looks inside these collaborators. It depends only on
// the extractor's output shape (batch × D) and on its determinism.
package extractor
