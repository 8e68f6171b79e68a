package server

import "github.com/ironsheep/blob-tools-mcp/internal/colortable"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func labelProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"enum":        colortable.LabelNames(),
		"description": description,
	}
}

// blobFilterProperties are shared by the tools that segment a frame.
func blobFilterProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"min_area": map[string]interface{}{
			"type":        "integer",
			"description": "Drop blobs with fewer pixels than this. Default: the configured minimum area",
		},
		"labels": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "string", "enum": colortable.LabelNames()},
			"description": "Only report blobs with these labels. Default: all labels",
		},
		"min_fill": map[string]interface{}{
			"type":        "number",
			"description": "Drop blobs whose area divided by their bounding box area is below this (0-1). Default 0",
		},
	}
}

func withProperties(base map[string]interface{}, extra map[string]interface{}) map[string]interface{} {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file (PNG, JPEG, GIF, TIFF or BMP) and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_sample_color",
			Description: "Get the color at a pixel of the original image, optionally averaged over a square patch, and the label the current color table assigns to it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Average over a (2*radius+1) square patch. Default 0 (single pixel)",
						"default":     0,
					},
				},
				"required": []string{"path", "x", "y"},
			},
		},

		// Color Table
		{
			Name:        "colortable_load",
			Description: "Load a color table (.col file, 2 MiB raw lookup table) and make it the active table.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the .col file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "colortable_save",
			Description: "Save the active color table. The file is replaced atomically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Destination .col file. Default: the configured color table path",
					},
				},
			},
		},
		{
			Name:        "colortable_info",
			Description: "Report how many color cells the active table assigns to each label.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "colortable_add_sample",
			Description: "Assign a label to every color near the color at (x, y) in an image. Sensitivity widens the neighborhood by 5 per step in each RGB channel.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate of the sample",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate of the sample",
					},
					"label": labelProperty("Label to assign"),
					"sensitivity": map[string]interface{}{
						"type":        "integer",
						"description": "Neighborhood size, 0-25. Default 2",
						"default":     2,
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply the edit to a pending copy of the table and return the frame classified with it. Use colortable_commit to keep or discard pending edits. Default false",
						"default":     false,
					},
					"radius": map[string]interface{}{
						"type":        "integer",
						"description": "Average the sample over a (2*radius+1) square patch. Default 0",
						"default":     0,
					},
				},
				"required": []string{"path", "x", "y", "label"},
			},
		},
		{
			Name:        "colortable_remove_sample",
			Description: "Clear the given label from colors near the color at (x, y) in an image. Cells holding other labels are left alone.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate of the sample",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate of the sample",
					},
					"label": labelProperty("Label to clear"),
					"sensitivity": map[string]interface{}{
						"type":        "integer",
						"description": "Neighborhood size, 0-25. Default 2",
						"default":     2,
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Apply the edit to a pending copy of the table and return the frame classified with it. Use colortable_commit to keep or discard pending edits. Default false",
						"default":     false,
					},
				},
				"required": []string{"path", "x", "y", "label"},
			},
		},
		{
			Name:        "colortable_build",
			Description: "Build a new active table from a palette: every color is assigned the label of the nearest palette color in CIE Lab, or left undefined when none is within max_distance.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"colors": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"label": labelProperty("Label for this color"),
								"hex": map[string]interface{}{
									"type":        "string",
									"description": "Reference color as #RRGGBB",
								},
							},
							"required": []string{"label", "hex"},
						},
						"description": "Palette entries; a label may appear more than once",
					},
					"max_distance": map[string]interface{}{
						"type":        "number",
						"description": "Largest Lab distance that still receives a label. Default 0.2",
					},
				},
				"required": []string{"colors"},
			},
		},
		{
			Name:        "colortable_commit",
			Description: "Make previewed sample edits the active table, or discard them.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"discard": map[string]interface{}{
						"type":        "boolean",
						"description": "Drop the pending edits instead of committing them. Default false",
						"default":     false,
					},
				},
			},
		},

		// Segmentation
		{
			Name:        "image_classify",
			Description: "Classify every pixel of the prepared frame with the active color table and return the label image as PNG, each label drawn in its display color.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_find_blobs",
			Description: "Classify and segment a frame into same-label blobs. Returns each blob's label, bounding box, area, centroid and fill ratio in grid coordinates, largest first, plus per-label area statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(blobFilterProperties(), map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Return at most this many blobs. Default: all",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_blob_overlay",
			Description: "Draw the bounding box of every blob over the prepared frame and return it as PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(blobFilterProperties(), map[string]interface{}{
					"show_text": map[string]interface{}{
						"type":        "boolean",
						"description": "Caption each box with its index, label and area. Default true",
						"default":     true,
					},
					"thickness": map[string]interface{}{
						"type":        "integer",
						"description": "Outline width in pixels. Default 1",
						"default":     1,
					},
					"dim": map[string]interface{}{
						"type":        "number",
						"description": "Darken the frame by this percentage (0-100) so the boxes stand out. Default 0",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop_blob",
			Description: "Crop one blob, by its index in the image_find_blobs result for the same filters, out of the prepared frame.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withProperties(blobFilterProperties(), map[string]interface{}{
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "0-based blob index",
					},
					"padding": map[string]interface{}{
						"type":        "integer",
						"description": "Extra pixels around the bounding box. Default 2",
						"default":     2,
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 4.0 to enlarge small blobs). Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path", "index"},
			},
		},
	}
}
