package config

const (
	defaultLogLevel   = "info"
	defaultMeshCells  = 200
	defaultStorePath  = "~/.local/share/detgeo/geometry.db"
	defaultWorldMat   = "Vacuum"
	defaultWorldHalf  = 1000.0
	defaultVariation  = "original"
	defaultRootMother = "root"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Detector: Detector{
			DefaultVariation: defaultVariation,
			DefaultID:        1,
			OutputDir:        ".",
		},
		Placement: Placement{
			Root:          defaultRootMother,
			WorldMaterial: defaultWorldMat,
			WorldHalfSize: defaultWorldHalf,
		},
		Render: Render{
			MeshCells: defaultMeshCells,
		},
		Script: Script{
			TimeoutSeconds: 5,
		},
		Store: Store{
			Path: defaultStorePath,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: "console",
		},
	}
}
