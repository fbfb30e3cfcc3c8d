package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	errs "xtractor/pkg/errors"
	"xtractor/pkg/logger"
	"xtractor/pkg/models"
)

// Stats summarizes one topic's collected posts
type Stats struct {
	Hashtag     string    `json:"hashtag"`
	TotalTweets int       `json:"total_tweets"`
	UniqueUsers int       `json:"unique_users"`
	AvgLikes    float64   `json:"avg_likes"`
	AvgRetweets float64   `json:"avg_retweets"`
	AvgReplies  float64   `json:"avg_replies"`
	DateRange   DateRange `json:"date_range"`
}

// DateRange is the span of post timestamps in a result set
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Manager persists collected posts under the output directory. Each
// topic produces a timestamped CSV of records plus a JSON stats summary;
// both are written atomically so a crash never leaves partial output.
type Manager struct {
	baseDir string
	logger  logger.Logger
	now     func() time.Time
}

// NewManager creates a storage manager rooted at baseDir
func NewManager(baseDir string) *Manager {
	return &Manager{
		baseDir: baseDir,
		logger:  logger.GetLogger(),
		now:     time.Now,
	}
}

var csvHeader = []string{
	"username", "timestamp", "content",
	"replies", "retweets", "likes",
	"mentions", "hashtags", "urls",
	"scraped_at",
}

// SaveTopic writes the topic's posts and stats summary, returning the
// paths of the files it created.
func (m *Manager) SaveTopic(topic models.Topic, posts []models.Post) (csvPath, statsPath string, err error) {
	if err := os.MkdirAll(m.baseDir, 0755); err != nil {
		return "", "", errs.Wrap(errs.ErrorTypeUnknown, "failed to create output directory", err)
	}

	stamp := m.now().Format("20060102_150405")
	csvPath = filepath.Join(m.baseDir, fmt.Sprintf("tweets_%s_%s.csv", topic.Tag, stamp))
	statsPath = filepath.Join(m.baseDir, fmt.Sprintf("stats_%s_%s.json", topic.Tag, stamp))

	if err := m.writeCSV(csvPath, posts); err != nil {
		return "", "", err
	}
	if err := m.writeStats(statsPath, topic, posts); err != nil {
		return "", "", err
	}

	m.logger.InfoWithFields("Saved topic output", map[string]interface{}{
		"topic": topic.Tag,
		"posts": len(posts),
		"csv":   csvPath,
		"stats": statsPath,
	})
	return csvPath, statsPath, nil
}

func (m *Manager) writeCSV(path string, posts []models.Post) error {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	if err := w.Write(csvHeader); err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to write CSV header", err)
	}
	for _, p := range posts {
		record := []string{
			p.Username,
			p.Timestamp,
			p.Content,
			strconv.Itoa(p.Replies),
			strconv.Itoa(p.Retweets),
			strconv.Itoa(p.Likes),
			strings.Join(p.Mentions, ", "),
			strings.Join(p.Hashtags, ", "),
			strings.Join(p.URLs, ", "),
			p.ScrapedAt.Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return errs.Wrap(errs.ErrorTypeUnknown, "failed to write CSV record", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to flush CSV", err)
	}

	return m.writeAtomic(path, []byte(sb.String()))
}

func (m *Manager) writeStats(path string, topic models.Topic, posts []models.Post) error {
	stats := Summarize(topic, posts)

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to marshal stats", err)
	}
	return m.writeAtomic(path, data)
}

// writeAtomic writes to a temp file in the target directory and renames
// it into place
func (m *Manager) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to create temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to close temp file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errs.Wrap(errs.ErrorTypeUnknown, "failed to move output into place", err)
	}
	return nil
}

// Summarize computes the stats block for one topic's posts
func Summarize(topic models.Topic, posts []models.Post) Stats {
	stats := Stats{
		Hashtag:     topic.Tag,
		TotalTweets: len(posts),
	}
	if len(posts) == 0 {
		return stats
	}

	users := make(map[string]struct{}, len(posts))
	var likes, retweets, replies int
	minTS, maxTS := "", ""
	for _, p := range posts {
		users[p.Username] = struct{}{}
		likes += p.Likes
		retweets += p.Retweets
		replies += p.Replies

		if p.Timestamp == "" {
			continue
		}
		// RFC 3339 timestamps order lexicographically
		if minTS == "" || p.Timestamp < minTS {
			minTS = p.Timestamp
		}
		if maxTS == "" || p.Timestamp > maxTS {
			maxTS = p.Timestamp
		}
	}

	n := float64(len(posts))
	stats.UniqueUsers = len(users)
	stats.AvgLikes = float64(likes) / n
	stats.AvgRetweets = float64(retweets) / n
	stats.AvgReplies = float64(replies) / n
	stats.DateRange = DateRange{Start: minTS, End: maxTS}
	return stats
}
