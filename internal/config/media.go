package config

import "time"

// MediaConfig controls where uploaded listing media is stored and how large
// and slow an upload may be.
type MediaConfig struct {
	Dir           string        // directory files are written to
	BaseURL       string        // public URL prefix the directory is served under
	MaxBytes      int64         // per-file cap
	MaxImages     int           // images accepted per request
	UploadTimeout time.Duration // deadline for all uploads of one request
}

func LoadMediaConfig() MediaConfig {
	cfg := MediaConfig{
		Dir:           envStr("MEDIA_DIR", "./uploads"),
		BaseURL:       envStr("MEDIA_BASE_URL", "/uploads"),
		MaxBytes:      int64(envInt("MEDIA_MAX_BYTES", 200<<20)),
		MaxImages:     envInt("MEDIA_MAX_IMAGES", 5),
		UploadTimeout: envDur("MEDIA_UPLOAD_TIMEOUT", 2*time.Minute),
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 200 << 20
	}
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 5
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 2 * time.Minute
	}
	return cfg
}
