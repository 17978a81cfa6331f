package config

import (
	"fmt"
	"time"
)

// Registry represents the entire user configuration file.
// It stores named target profiles and application preferences.
type Registry struct {
	Version     int                       `yaml:"version"`
	Profiles    map[string]*TargetProfile `yaml:"profiles,omitempty"` // Keyed by profile name
	Preferences *Preferences              `yaml:"preferences,omitempty"`
}

// TargetProfile describes one embedded target: how to reach its
// debugger, where its RAM staging buffer and external flash live, and
// the transfer policy to use against it.
type TargetProfile struct {
	GDBPath    string `yaml:"gdb_path,omitempty"`    // Debugger binary (default: arm-none-eabi-gdb)
	SymbolFile string `yaml:"symbol_file,omitempty"` // ELF providing the copy routine's symbol
	RemoteHost string `yaml:"remote_host,omitempty"` // GDB server host (default: localhost)
	RemotePort int    `yaml:"remote_port,omitempty"` // GDB server port (default: 3333)

	RAMBufferAddr uint64 `yaml:"ram_buffer_addr"`           // Staging buffer address in target RAM
	RAMBufferSize int    `yaml:"ram_buffer_size"`           // Staging buffer capacity in bytes
	FlashBase     uint64 `yaml:"flash_base"`                // External flash base address
	CopyFunction  string `yaml:"copy_function"`             // Symbol of the RAM-to-flash copy routine
	ChunkSize     int    `yaml:"chunk_size,omitempty"`      // Transfer unit (default: ram_buffer_size)
	MaxAttempts   int    `yaml:"max_attempts,omitempty"`    // Attempts per chunk (default: 3)
	ResponseMS    int    `yaml:"response_timeout,omitempty"` // Per-command timeout in milliseconds

	LastUsed time.Time `yaml:"last_used,omitempty"` // Last transfer against this profile
}

// ResponseTimeout returns the per-command deadline, or zero when the
// profile leaves it to the session default.
func (p *TargetProfile) ResponseTimeout() time.Duration {
	return time.Duration(p.ResponseMS) * time.Millisecond
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultProfile string `yaml:"default_profile,omitempty"` // Profile used when none is named
	StagingDir     string `yaml:"staging_dir,omitempty"`     // Chunk staging directory (default: os temp)
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     1,
		Profiles:    make(map[string]*TargetProfile),
		Preferences: &Preferences{},
	}
}

// GetProfile retrieves a profile by name.
// Returns nil if the profile doesn't exist in the registry.
func (r *Registry) GetProfile(name string) *TargetProfile {
	return r.Profiles[name]
}

// EnsureProfile ensures a profile entry exists in the registry,
// creating an empty one if needed, and returns it.
func (r *Registry) EnsureProfile(name string) *TargetProfile {
	if r.Profiles == nil {
		r.Profiles = make(map[string]*TargetProfile)
	}

	if profile, exists := r.Profiles[name]; exists {
		return profile
	}

	profile := &TargetProfile{}
	r.Profiles[name] = profile
	return profile
}

// ResolveProfile returns the named profile, or the preferred default
// when name is empty.
func (r *Registry) ResolveProfile(name string) (*TargetProfile, error) {
	if name == "" {
		if r.Preferences == nil || r.Preferences.DefaultProfile == "" {
			return nil, fmt.Errorf("no profile named and no default profile configured")
		}
		name = r.Preferences.DefaultProfile
	}

	profile := r.GetProfile(name)
	if profile == nil {
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	return profile, nil
}

// SetDefaultProfile records the profile used when none is named.
// The profile must already exist.
func (r *Registry) SetDefaultProfile(name string) error {
	if r.GetProfile(name) == nil {
		return fmt.Errorf("unknown profile %q", name)
	}
	if r.Preferences == nil {
		r.Preferences = &Preferences{}
	}
	r.Preferences.DefaultProfile = name
	return nil
}

// TouchProfile updates the last-used timestamp for a profile.
func (r *Registry) TouchProfile(name string) {
	if profile := r.GetProfile(name); profile != nil {
		profile.LastUsed = time.Now()
	}
}
