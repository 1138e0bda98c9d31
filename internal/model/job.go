package model

// OverlayJob describes a single base/overlay composition.
// It is created per pair while iterating the input directories and never persisted.
type OverlayJob struct {
	BasePath    string `json:"base_path"`
	OverlayPath string `json:"overlay_path"`
	OutputDir   string `json:"output_dir"`
	Filename    string `json:"filename"` // output name, always the base file's name
	Opacity     uint8  `json:"opacity"`  // 0 = overlay invisible, 255 = overlay alpha kept as is
}

// ResizeJob describes a single file resize.
type ResizeJob struct {
	InputPath string `json:"input_path"`
	OutputDir string `json:"output_dir"`
	Filename  string `json:"filename"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Pair is a base entry matched with an overlay entry.
type Pair struct {
	Base    string `json:"base"`
	Overlay string `json:"overlay"`
}
