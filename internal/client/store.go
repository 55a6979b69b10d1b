package client

import (
	"sync"

	"github.com/LeonardoBeccarini/farmai/internal/model/entities"
)

type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepLoading StepStatus = "loading"
	StepDone    StepStatus = "done"
	StepError   StepStatus = "error"
)

// LoadingStep is one line of the analysis progress list.
type LoadingStep struct {
	Label    string     `json:"label"`
	Sublabel string     `json:"sublabel"`
	Status   StepStatus `json:"status"`
}

func defaultSteps() []LoadingStep {
	return []LoadingStep{
		{Label: "Location identified", Status: StepPending},
		{Label: "Soil composition", Sublabel: "USDA database", Status: StepPending},
		{Label: "Climate history", Sublabel: "30-year normals", Status: StepPending},
		{Label: "Vegetation health", Sublabel: "Sentinel-2 satellite", Status: StepPending},
		{Label: "Crop compatibility matrix", Status: StepPending},
		{Label: "Economic projections", Status: StepPending},
	}
}

// Map layers, satellite on by default.
const (
	LayerSatellite  = "satellite"
	LayerNDVI       = "ndvi"
	LayerSoil       = "soil"
	LayerElevation  = "elevation"
	LayerIrrigation = "irrigation"
	LayerTerrain3D  = "terrain3d"
)

func defaultLayers() map[string]bool {
	return map[string]bool{
		LayerSatellite: true, LayerNDVI: false, LayerSoil: false,
		LayerElevation: false, LayerIrrigation: false, LayerTerrain3D: false,
	}
}

// SwarmState is the progress of the three-agent chain.
type SwarmState struct {
	Status       entities.SwarmStatus        `json:"status"`
	CurrentAgent int                         `json:"currentAgent"` // 0 when idle, 1..3 while running
	Remediation  *entities.RemediationResult `json:"remediation,omitempty"`
	Procurement  *entities.ProcurementResult `json:"procurement,omitempty"`
	Finance      *entities.FinanceResult     `json:"finance,omitempty"`
	Error        string                      `json:"error,omitempty"`
}

// Store is the single in-memory app state. Getters return copies.
type Store struct {
	mu sync.RWMutex

	address     *entities.AddressResult
	coordinates *entities.Coordinates
	property    entities.Property
	analysis    entities.Analysis
	analyzing   bool
	steps       []LoadingStep
	layers      map[string]bool
	activeTab   string
	swarm       SwarmState
	chat        []entities.ChatMessage
}

func NewStore() *Store {
	s := &Store{}
	s.reset()
	s.steps = defaultSteps()
	return s
}

func (s *Store) reset() {
	s.address = nil
	s.coordinates = nil
	s.property = entities.Property{}
	s.analysis = entities.Analysis{CropMatrix: []entities.CropScore{}, Economics: []entities.EconomicScenario{}, WeatherAlerts: []string{}}
	s.analyzing = false
	s.steps = nil
	if s.layers == nil {
		s.layers = defaultLayers()
	}
	s.activeTab = "overview"
	s.swarm = SwarmState{Status: entities.SwarmIdle}
	s.chat = nil
}

// Reset clears location, property, analysis, progress, swarm and chat. Layer toggles survive.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// ===== Location & property =====

// SetAddress also moves the map to the address.
func (s *Store) SetAddress(a entities.AddressResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.address = &a
	s.coordinates = &entities.Coordinates{Lat: a.Lat, Lng: a.Lng}
}

func (s *Store) Address() (entities.AddressResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.address == nil {
		return entities.AddressResult{}, false
	}
	return *s.address, true
}

func (s *Store) Coordinates() (entities.Coordinates, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.coordinates == nil {
		return entities.Coordinates{}, false
	}
	return *s.coordinates, true
}

func (s *Store) SetProperty(p entities.Property) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.property = p
}

func (s *Store) Property() entities.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.property
}

// ===== Analysis & progress =====

func (s *Store) SetAnalysis(a entities.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = a
}

func (s *Store) Analysis() entities.Analysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analysis
}

// SetAnalyzing starts a fresh progress list when v is true and clears it otherwise.
func (s *Store) SetAnalyzing(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyzing = v
	if v {
		s.steps = defaultSteps()
	} else {
		s.steps = nil
	}
}

func (s *Store) Analyzing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyzing
}

// UpdateLoadingStep ignores indexes outside the list.
func (s *Store) UpdateLoadingStep(i int, st StepStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= 0 && i < len(s.steps) {
		s.steps[i].Status = st
	}
}

func (s *Store) LoadingSteps() []LoadingStep {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]LoadingStep(nil), s.steps...)
}

// ===== UI =====

func (s *Store) ToggleLayer(layer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers[layer] = !s.layers[layer]
}

func (s *Store) Layers() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]bool, len(s.layers))
	for k, v := range s.layers {
		out[k] = v
	}
	return out
}

func (s *Store) SetActiveTab(tab string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTab = tab
}

func (s *Store) ActiveTab() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeTab
}

// ===== Swarm =====

func (s *Store) ResetSwarm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swarm = SwarmState{Status: entities.SwarmIdle}
}

func (s *Store) SetSwarmStatus(st entities.SwarmStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swarm.Status = st
}

func (s *Store) SetCurrentAgent(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swarm.CurrentAgent = n
}

func (s *Store) SetRemediationResult(r entities.RemediationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swarm.Remediation = &r
}

func (s *Store) SetProcurementResult(r entities.ProcurementResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swarm.Procurement = &r
}

func (s *Store) SetFinanceResult(r entities.FinanceResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swarm.Finance = &r
}

// FailSwarm drops partial results and returns the swarm to idle with msg recorded.
func (s *Store) FailSwarm(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swarm = SwarmState{Status: entities.SwarmIdle, Error: msg}
}

func (s *Store) Swarm() SwarmState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.swarm
}

// ===== Chat =====

func (s *Store) AppendChat(m ...entities.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chat = append(s.chat, m...)
}

func (s *Store) ChatHistory() []entities.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.ChatMessage(nil), s.chat...)
}
