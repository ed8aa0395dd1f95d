package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jungha-dev/newsVideo-sub000/internal/config"
	"github.com/jungha-dev/newsVideo-sub000/internal/platform"
	"github.com/jungha-dev/newsVideo-sub000/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Maintenance process: purges expired auth sessions and sweeps merge temp
// files whose owning process died before the expiry timer fired.
func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db := platform.NewDBConnection()

	c := cron.New()

	if _, err := c.AddFunc("@every 1h", func() { purgeExpiredSessions(db) }); err != nil {
		log.Fatalf("Failed to schedule session purge: %v", err)
	}
	if _, err := c.AddFunc("@every 5m", func() { sweepMergeTempFiles(cfg.Merge.TempDir, cfg.HandleTTL()) }); err != nil {
		log.Fatalf("Failed to schedule temp sweep: %v", err)
	}

	c.Start()
	defer c.Stop()

	log.Println("Scheduler started")
	select {}
}

func purgeExpiredSessions(db *gorm.DB) {
	result := db.Where("expires_at < ?", time.Now()).Delete(&models.Session{})
	if result.Error != nil {
		log.Printf("Error purging expired sessions: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Purged %d expired sessions", result.RowsAffected)
	}
}

// sweepMergeTempFiles removes merge-*.mp4 leftovers older than twice the
// handle TTL. Live handles are always younger than that.
func sweepMergeTempFiles(dir string, ttl time.Duration) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("Error reading temp dir %s: %v", dir, err)
		return
	}

	cutoff := time.Now().Add(-2 * ttl)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "merge-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("Error removing %s: %v", path, err)
			} else {
				log.Printf("Removed stale merge file %s", path)
			}
		}
	}
}
