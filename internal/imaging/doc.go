// Package imaging loads camera frames and produces the images the blob tools
// return: prepared frames, color samples, blob crops and box overlays.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Regions are image.Rectangle
// values with Min inclusive and Max exclusive, so a blob bounding box with
// inclusive corners (MinCol, MinRow)-(MaxCol, MaxRow) becomes
// image.Rect(MinCol, MinRow, MaxCol+1, MaxRow+1).
//
// # Frame Pipeline
//
// A frame goes through three steps before it is segmented:
//
//  1. ImageCache.Load decodes the file (PNG, JPEG, GIF, TIFF or BMP).
//  2. PrepareFrame resizes it to the label grid size and optionally blurs it.
//  3. The color table classifies the prepared frame into a label grid.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions never modify
// their inputs and may be called concurrently.
//
// # Results
//
// Image-producing functions return an ImageResult holding a base64 PNG, which
// is what MCP clients expect in a tool response.
package imaging
