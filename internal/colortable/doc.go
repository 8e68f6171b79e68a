// Package colortable implements the lookup-table color classifier that turns
// camera frames into label grids for package segment.
//
// # Table Layout
//
// A Table holds one label per cell of a 128x128x128 cube. Each 8-bit RGB
// channel is halved, so the label for (r, g, b) lives at
//
//	index = (r>>1)<<14 | (g>>1)<<7 | (b>>1)
//
// The on-disk ".col" format is exactly those 2,097,152 bytes with no header.
//
// # Labels
//
// Labels 1-6 name the colors the classifier is trained for (orange, pink,
// blue, green, white, yellow). Label 0 is undefined. Each label has a display
// color used when rendering a classified frame.
//
// # Building Tables
//
// Tables are trained either by sampling pixels (AddSample/RemoveSample, which
// paint a cube around the sampled color) or generated from a palette of
// reference colors by nearest neighbour in CIE-Lab space (FromPalette).
//
// # Thread Safety
//
// Lookups and Classify only read the table. Editing a table that is being
// used for classification must be synchronized by the caller; Holder offers
// copy-on-write replacement and Watcher reloads a table file when it changes.
package colortable
