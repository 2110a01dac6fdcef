package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"ember/internal/models"
)

const (
	profilesKey      = "gpt/profiles"
	activeProfileKey = "gpt/active"
)

var ErrDefaultProfile = errors.New("default profile cannot be deleted")

// Profiles manages credential profiles and the active-profile pointer. The
// pointer may dangle after a delete; Active re-resolves it instead of
// failing, preferring the default-flagged profile, then the first one.
type Profiles struct {
	mu sync.Mutex
	kv KV
}

func NewProfiles(kv KV) *Profiles {
	return &Profiles{kv: kv}
}

// EnsureDefault seeds the store with the environment-derived profile on
// first run. An existing default is left alone so user edits survive.
func (p *Profiles) EnsureDefault(def models.Profile) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	profiles, err := p.load()
	if err != nil {
		return err
	}
	for _, prof := range profiles {
		if prof.ID == def.ID {
			return nil
		}
	}
	def.Default = true
	profiles = append([]models.Profile{def}, profiles...)
	return p.save(profiles)
}

func (p *Profiles) List() ([]models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

// Active returns the profile the active pointer names, re-resolving a
// dangling pointer to the default profile or, failing that, the first one.
func (p *Profiles) Active() (models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	profiles, err := p.load()
	if err != nil {
		return models.Profile{}, err
	}
	if len(profiles) == 0 {
		return models.Profile{}, errors.New("no profiles configured")
	}

	raw, ok, err := p.kv.Get(activeProfileKey)
	if err != nil {
		return models.Profile{}, fmt.Errorf("load active profile: %w", err)
	}
	if ok {
		id := string(raw)
		for _, prof := range profiles {
			if prof.ID == id {
				return prof, nil
			}
		}
	}

	resolved := profiles[0]
	for _, prof := range profiles {
		if prof.Default {
			resolved = prof
			break
		}
	}
	if err := p.kv.Set(activeProfileKey, []byte(resolved.ID)); err != nil {
		return models.Profile{}, fmt.Errorf("save active profile: %w", err)
	}
	return resolved, nil
}

func (p *Profiles) SetActive(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	profiles, err := p.load()
	if err != nil {
		return err
	}
	for _, prof := range profiles {
		if prof.ID == id {
			return p.kv.Set(activeProfileKey, []byte(id))
		}
	}
	return fmt.Errorf("unknown profile %q", id)
}

// Upsert inserts or replaces a profile, assigning an ID when absent.
func (p *Profiles) Upsert(prof models.Profile) (models.Profile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prof.ID == "" {
		prof.ID = uuid.NewString()
	}

	profiles, err := p.load()
	if err != nil {
		return models.Profile{}, err
	}
	replaced := false
	for i := range profiles {
		if profiles[i].ID == prof.ID {
			prof.Default = profiles[i].Default
			profiles[i] = prof
			replaced = true
			break
		}
	}
	if !replaced {
		profiles = append(profiles, prof)
	}
	if err := p.save(profiles); err != nil {
		return models.Profile{}, err
	}
	return prof, nil
}

// Delete removes a profile. The default-flagged profile is protected; a
// deleted active profile leaves a dangling pointer that Active re-resolves.
func (p *Profiles) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	profiles, err := p.load()
	if err != nil {
		return err
	}
	kept := profiles[:0]
	found := false
	for _, prof := range profiles {
		if prof.ID == id {
			if prof.Default {
				return ErrDefaultProfile
			}
			found = true
			continue
		}
		kept = append(kept, prof)
	}
	if !found {
		return fmt.Errorf("unknown profile %q", id)
	}
	return p.save(kept)
}

func (p *Profiles) load() ([]models.Profile, error) {
	raw, ok, err := p.kv.Get(profilesKey)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	if !ok {
		return []models.Profile{}, nil
	}
	var profiles []models.Profile
	if err := json.Unmarshal(raw, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

func (p *Profiles) save(profiles []models.Profile) error {
	raw, err := json.Marshal(profiles)
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}
	return p.kv.Set(profilesKey, raw)
}
