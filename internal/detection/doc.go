// Package detection turns segmented blobs into detections and post-processes
// them for callers.
//
// A Detection is the caller-facing view of a blob: its label, bounding box,
// pixel area and a fill ratio that serves as a confidence score. Raw blobs
// keep their run lists; detections are plain values safe to serialize.
//
// # Post-processing
//
// Postprocessors are functions from a detection list to a detection list and
// compose with Apply:
//
//	dets := detection.Apply(detection.FromBlobs(blobs),
//	    detection.NewLabelFilter(colortable.Orange),
//	    detection.NewAreaFilter(20),
//	    detection.SortByArea(),
//	)
//
// # Coordinate System
//
// Bounds use inclusive corners in grid coordinates: X is the column and Y is
// the row, with (0, 0) at the top-left.
//
// # Fill Ratio
//
// Fill is the blob's pixel area divided by its bounding box area, in (0, 1].
// Solid, box-shaped blobs score 1; thin diagonal or ring-shaped blobs, and
// blobs merged across a gap, score low.
package detection
