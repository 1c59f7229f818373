package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/damiantriebl/pgworkspace/internal/logx"
	"github.com/damiantriebl/pgworkspace/schema"
	"pkt.systems/pslog"
)

// storageVersion marks the on-disk profile file format.
const storageVersion = 1

// SortBy selects the profile sort key.
type SortBy string

const (
	// SortByName orders by profile name.
	SortByName SortBy = "name"
	// SortByCreated orders by creation time.
	SortByCreated SortBy = "created"
	// SortByUpdated orders by last update time.
	SortByUpdated SortBy = "updated"
	// SortByLastUsed orders by last use time.
	SortByLastUsed SortBy = "last_used"
	// SortByUseCount orders by use count.
	SortByUseCount SortBy = "use_count"
)

// SearchOptions filters and pages a profile listing.
type SearchOptions struct {
	// Query matches name, description, host, database, and tags.
	Query        string
	Tags         []string
	Folder       *string
	Environment  *schema.Environment
	FavoriteOnly bool
	SortBy       SortBy
	Descending   bool
	Offset       int
	Limit        int
}

// Stats summarizes the profile storage.
type Stats struct {
	ProfileCount  int       `json:"profile_count"`
	FavoriteCount int       `json:"favorite_count"`
	FolderCount   int       `json:"folder_count"`
	TagCount      int       `json:"tag_count"`
	LastUpdated   time.Time `json:"last_updated"`
	FileSizeBytes int64     `json:"file_size_bytes"`
}

type storageMetadata struct {
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	LastUpdated  time.Time `json:"last_updated"`
	ProfileCount int       `json:"profile_count"`
}

type storedData struct {
	Metadata storageMetadata            `json:"metadata"`
	Profiles []schema.ConnectionProfile `json:"profiles"`
}

// Store manages connection profiles backed by a JSON file. Mutations save
// to disk before returning.
type Store struct {
	path string
	log  pslog.Logger

	mu       sync.Mutex
	profiles map[schema.ProfileID]schema.ConnectionProfile
	created  time.Time
}

// NewStore loads (or initializes) the profile store at path.
func NewStore(path string) (*Store, error) {
	return NewStoreWithLogger(path, nil)
}

// NewStoreWithLogger loads the profile store with logging.
func NewStoreWithLogger(path string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("profile store path is required")
	}
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	s := &Store{
		path:     path,
		log:      logger.With("profile_store", path),
		profiles: make(map[schema.ProfileID]schema.ConnectionProfile),
		created:  time.Now().UTC(),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Debug("profile store empty")
			return nil
		}
		return err
	}
	var stored storedData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("profile store corrupt: %w", err)
	}
	for _, profile := range stored.Profiles {
		s.profiles[profile.ID] = profile
	}
	if !stored.Metadata.CreatedAt.IsZero() {
		s.created = stored.Metadata.CreatedAt
	}
	s.log.Debug("profile store loaded", "profiles", len(s.profiles))
	return nil
}

func (s *Store) saveLocked() error {
	profiles := make([]schema.ConnectionProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		profiles = append(profiles, profile)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].CreatedAt.Before(profiles[j].CreatedAt) })
	stored := storedData{
		Metadata: storageMetadata{
			Version:      storageVersion,
			CreatedAt:    s.created,
			LastUpdated:  time.Now().UTC(),
			ProfileCount: len(profiles),
		},
		Profiles: profiles,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), "profiles-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Create validates and stores a new profile, assigning id and timestamps.
// Names are unique across the store.
func (s *Store) Create(profile schema.ConnectionProfile) (schema.ConnectionProfile, error) {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return schema.ConnectionProfile{}, fmt.Errorf("%w: name is required", schema.ErrInvalidProfile)
	}
	profile.Name = name
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Name, name) {
			return schema.ConnectionProfile{}, fmt.Errorf("%w: %s", schema.ErrProfileExists, name)
		}
	}
	now := time.Now().UTC()
	profile.ID = schema.ProfileID(uuid.NewString())
	profile.CreatedAt = now
	profile.UpdatedAt = now
	profile.LastUsed = nil
	profile.UseCount = 0
	if profile.Metadata.Environment == "" {
		profile.Metadata.Environment = schema.EnvDevelopment
	}
	s.profiles[profile.ID] = profile
	if err := s.saveLocked(); err != nil {
		delete(s.profiles, profile.ID)
		s.log.Warn("profile create failed", "name", name, "err", err)
		return schema.ConnectionProfile{}, err
	}
	logx.WithProfile(s.log, profile.ID, name).Info("profile created")
	return profile, nil
}

// Get returns the profile by id.
func (s *Store) Get(id schema.ProfileID) (schema.ConnectionProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return schema.ConnectionProfile{}, fmt.Errorf("%w: %s", schema.ErrProfileNotFound, id)
	}
	return profile, nil
}

// GetByName returns the profile with the given name (case-insensitive).
func (s *Store) GetByName(name string) (schema.ConnectionProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, profile := range s.profiles {
		if strings.EqualFold(profile.Name, name) {
			return profile, nil
		}
	}
	return schema.ConnectionProfile{}, fmt.Errorf("%w: %s", schema.ErrProfileNotFound, name)
}

// Update replaces the stored profile, preserving id, creation time, and
// usage stats. The new name must not collide with another profile.
func (s *Store) Update(id schema.ProfileID, updated schema.ConnectionProfile) (schema.ConnectionProfile, error) {
	name := strings.TrimSpace(updated.Name)
	if name == "" {
		return schema.ConnectionProfile{}, fmt.Errorf("%w: name is required", schema.ErrInvalidProfile)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[id]
	if !ok {
		return schema.ConnectionProfile{}, fmt.Errorf("%w: %s", schema.ErrProfileNotFound, id)
	}
	for _, existing := range s.profiles {
		if existing.ID != id && strings.EqualFold(existing.Name, name) {
			return schema.ConnectionProfile{}, fmt.Errorf("%w: %s", schema.ErrProfileExists, name)
		}
	}
	updated.ID = current.ID
	updated.Name = name
	updated.CreatedAt = current.CreatedAt
	updated.LastUsed = current.LastUsed
	updated.UseCount = current.UseCount
	updated.UpdatedAt = time.Now().UTC()
	s.profiles[id] = updated
	if err := s.saveLocked(); err != nil {
		s.profiles[id] = current
		logx.WithProfile(s.log, id, name).Warn("profile update failed", "err", err)
		return schema.ConnectionProfile{}, err
	}
	logx.WithProfile(s.log, id, name).Info("profile updated")
	return updated, nil
}

// Delete removes the profile and returns it.
func (s *Store) Delete(id schema.ProfileID) (schema.ConnectionProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return schema.ConnectionProfile{}, fmt.Errorf("%w: %s", schema.ErrProfileNotFound, id)
	}
	delete(s.profiles, id)
	if err := s.saveLocked(); err != nil {
		s.profiles[id] = profile
		logx.WithProfile(s.log, id, profile.Name).Warn("profile delete failed", "err", err)
		return schema.ConnectionProfile{}, err
	}
	logx.WithProfile(s.log, id, profile.Name).Info("profile deleted")
	return profile, nil
}

// All returns every profile sorted by name.
func (s *Store) All() []schema.ConnectionProfile {
	return s.Search(SearchOptions{SortBy: SortByName})
}

// Search filters, sorts, and pages profiles.
func (s *Store) Search(options SearchOptions) []schema.ConnectionProfile {
	s.mu.Lock()
	matched := make([]schema.ConnectionProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		if matches(profile, options) {
			matched = append(matched, profile)
		}
	}
	s.mu.Unlock()

	sortKey := options.SortBy
	if sortKey == "" {
		sortKey = SortByName
	}
	sort.Slice(matched, func(i, j int) bool {
		less := compare(matched[i], matched[j], sortKey)
		if options.Descending {
			return !less
		}
		return less
	})

	if options.Offset > 0 {
		if options.Offset >= len(matched) {
			return nil
		}
		matched = matched[options.Offset:]
	}
	if options.Limit > 0 && options.Limit < len(matched) {
		matched = matched[:options.Limit]
	}
	return matched
}

// Recent returns the most recently used profiles, newest first.
func (s *Store) Recent(limit int) []schema.ConnectionProfile {
	s.mu.Lock()
	used := make([]schema.ConnectionProfile, 0, len(s.profiles))
	for _, profile := range s.profiles {
		if profile.LastUsed != nil {
			used = append(used, profile)
		}
	}
	s.mu.Unlock()
	sort.Slice(used, func(i, j int) bool { return used[i].LastUsed.After(*used[j].LastUsed) })
	if limit > 0 && limit < len(used) {
		used = used[:limit]
	}
	return used
}

// MarkUsed bumps the profile's usage stats.
func (s *Store) MarkUsed(id schema.ProfileID) (schema.ConnectionProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[id]
	if !ok {
		return schema.ConnectionProfile{}, fmt.Errorf("%w: %s", schema.ErrProfileNotFound, id)
	}
	now := time.Now().UTC()
	profile.LastUsed = &now
	profile.UseCount++
	s.profiles[id] = profile
	if err := s.saveLocked(); err != nil {
		logx.WithProfile(s.log, id, profile.Name).Warn("profile mark used failed", "err", err)
		return schema.ConnectionProfile{}, err
	}
	return profile, nil
}

// Stats summarizes the store contents.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	stats := Stats{ProfileCount: len(s.profiles)}
	folders := make(map[string]struct{})
	tags := make(map[string]struct{})
	for _, profile := range s.profiles {
		if profile.Metadata.IsFavorite {
			stats.FavoriteCount++
		}
		if profile.Folder != "" {
			folders[profile.Folder] = struct{}{}
		}
		for _, tag := range profile.Tags {
			tags[strings.ToLower(tag)] = struct{}{}
		}
		if profile.UpdatedAt.After(stats.LastUpdated) {
			stats.LastUpdated = profile.UpdatedAt
		}
	}
	s.mu.Unlock()
	stats.FolderCount = len(folders)
	stats.TagCount = len(tags)
	if info, err := os.Stat(s.path); err == nil {
		stats.FileSizeBytes = info.Size()
	}
	return stats
}

func matches(profile schema.ConnectionProfile, options SearchOptions) bool {
	if query := strings.TrimSpace(strings.ToLower(options.Query)); query != "" {
		hay := strings.ToLower(strings.Join(append([]string{
			profile.Name,
			profile.Description,
			profile.Config.Host,
			profile.Config.Database,
		}, profile.Tags...), "\n"))
		if !strings.Contains(hay, query) {
			return false
		}
	}
	for _, tag := range options.Tags {
		if !profile.HasTag(tag) {
			return false
		}
	}
	if options.Folder != nil && profile.Folder != *options.Folder {
		return false
	}
	if options.Environment != nil && profile.Metadata.Environment != *options.Environment {
		return false
	}
	if options.FavoriteOnly && !profile.Metadata.IsFavorite {
		return false
	}
	return true
}

func compare(a, b schema.ConnectionProfile, key SortBy) bool {
	switch key {
	case SortByCreated:
		return a.CreatedAt.Before(b.CreatedAt)
	case SortByUpdated:
		return a.UpdatedAt.Before(b.UpdatedAt)
	case SortByLastUsed:
		switch {
		case a.LastUsed == nil && b.LastUsed == nil:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		case a.LastUsed == nil:
			return true
		case b.LastUsed == nil:
			return false
		default:
			return a.LastUsed.Before(*b.LastUsed)
		}
	case SortByUseCount:
		return a.UseCount < b.UseCount
	default:
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
}
