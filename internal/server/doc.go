// Package server implements the MCP (Model Context Protocol) server for
// color blob segmentation.
//
// The server speaks JSON-RPC 2.0 over stdio, one request per line:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Tools
//
// Image information:
//   - image_load, image_dimensions: Load a frame and report its size
//   - image_sample_color: Color at a pixel and the label the table gives it
//
// Color table:
//   - colortable_load, colortable_save, colortable_info: Manage the .col file
//   - colortable_add_sample, colortable_remove_sample: Train from image samples
//   - colortable_build: Build a table from a reference palette
//   - colortable_commit: Keep or discard edits made with preview set
//
// Segmentation:
//   - image_classify: Render the per-pixel label image
//   - image_find_blobs: Blobs with bounding boxes, areas and centroids
//   - image_blob_overlay: Frame with blob boxes drawn over it
//   - image_crop_blob: Crop a single blob out of the frame
//
// Segmentation tools number blobs largest first, so an index from
// image_find_blobs picks the same blob in image_crop_blob when the filters
// match.
//
// # Errors
//
// Bad arguments return -32602 (invalid params). Any other tool failure,
// such as an unreadable file or a missing color table, returns -32000 with
// the Go error string in data.
package server
