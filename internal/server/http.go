// Package server exposes the recorder's command surface as a local
// HTTP JSON API plus a websocket event stream.
package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Fikrifrds/meeting-notes/internal/audio"
	"github.com/Fikrifrds/meeting-notes/internal/config"
	"github.com/Fikrifrds/meeting-notes/internal/export"
	"github.com/Fikrifrds/meeting-notes/internal/meeting"
	"github.com/Fikrifrds/meeting-notes/internal/metrics"
	"github.com/Fikrifrds/meeting-notes/internal/minutes"
	"github.com/Fikrifrds/meeting-notes/internal/session"
	"github.com/Fikrifrds/meeting-notes/internal/store"
	"github.com/Fikrifrds/meeting-notes/internal/transcribe"
)

// DeviceLister enumerates capture hardware and checks microphone
// access.
type DeviceLister interface {
	List() (inputs, outputs []audio.Device, err error)
	TestMicrophoneAccess() (string, error)
}

// Recognizer is the speech engine as the command surface sees it.
type Recognizer interface {
	Init(modelDir string) error
	Initialized() bool
	Transcribe(samples []float32, language string) (string, error)
	TranscribeWithSegments(samples []float32, language string) (*transcribe.Result, error)
}

// Server routes command-surface requests to the session controller,
// store, recognizer, and minutes providers.
type Server struct {
	controller *session.Controller
	devices    DeviceLister
	store      *store.Store
	recognizer Recognizer
	openai     minutes.Provider
	ollama     minutes.Provider
	exporter   *export.Exporter
	cfg        *config.Config
	hub        *Hub
	logger     zerolog.Logger
}

// New wires a command-surface server.
func New(controller *session.Controller, devices DeviceLister, st *store.Store,
	recognizer Recognizer, openai, ollama minutes.Provider, exporter *export.Exporter,
	cfg *config.Config, hub *Hub, logger zerolog.Logger) *Server {

	return &Server{
		controller: controller,
		devices:    devices,
		store:      st,
		recognizer: recognizer,
		openai:     openai,
		ollama:     ollama,
		exporter:   exporter,
		cfg:        cfg,
		hub:        hub,
		logger:     logger.With().Str("component", "server").Logger(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /events", s.hub)

	mux.HandleFunc("GET /api/devices", s.command("get_audio_devices", s.handleGetDevices))
	mux.HandleFunc("POST /api/devices/select", s.command("set_audio_devices", s.handleSetDevices))
	mux.HandleFunc("GET /api/devices/selected", s.command("get_selected_devices", s.handleGetSelectedDevices))
	mux.HandleFunc("POST /api/devices/test-mic", s.command("test_microphone_access", s.handleTestMic))

	mux.HandleFunc("POST /api/whisper/init", s.command("initialize_whisper", s.handleInitWhisper))
	mux.HandleFunc("POST /api/transcribe", s.command("transcribe_audio", s.handleTranscribe))
	mux.HandleFunc("POST /api/transcribe/segments", s.command("transcribe_audio_with_segments", s.handleTranscribeSegments))

	mux.HandleFunc("POST /api/realtime/enable", s.command("enable_realtime_transcription", s.handleEnableRealtime))
	mux.HandleFunc("POST /api/realtime/disable", s.command("disable_realtime_transcription", s.handleDisableRealtime))

	mux.HandleFunc("GET /api/recording/status", s.command("get_recording_status", s.handleRecordingStatus))
	mux.HandleFunc("POST /api/recording/start", s.command("start_recording", s.handleStartRecording))
	mux.HandleFunc("POST /api/recording/stop", s.command("stop_recording", s.handleStopRecording))

	mux.HandleFunc("POST /api/files/transcript", s.command("save_transcript_to_file", s.handleSaveTranscript))
	mux.HandleFunc("POST /api/files/minutes", s.command("save_meeting_minutes", s.handleSaveMinutes))
	mux.HandleFunc("POST /api/files/audio", s.command("save_uploaded_audio", s.handleSaveUploadedAudio))

	mux.HandleFunc("POST /api/minutes/openai", s.command("generate_meeting_minutes", s.handleMinutes(func() minutes.Provider { return s.openai }, "openai")))
	mux.HandleFunc("POST /api/minutes/ollama", s.command("generate_meeting_minutes_ollama", s.handleMinutes(func() minutes.Provider { return s.ollama }, "ollama")))

	mux.HandleFunc("GET /api/gains", s.command("get_gain_settings", s.handleGetGains))
	mux.HandleFunc("PUT /api/gains", s.command("set_gain_settings", s.handleSetGains))

	mux.HandleFunc("GET /api/meetings", s.command("get_all_meetings", s.handleListMeetings))
	mux.HandleFunc("POST /api/meetings", s.command("create_meeting", s.handleCreateMeeting))
	mux.HandleFunc("GET /api/meetings/search", s.command("search_meetings", s.handleSearchMeetings))
	mux.HandleFunc("GET /api/meetings/{id}", s.command("get_meeting", s.handleGetMeeting))
	mux.HandleFunc("PUT /api/meetings/{id}", s.command("update_meeting", s.handleUpdateMeeting))
	mux.HandleFunc("DELETE /api/meetings/{id}", s.command("delete_meeting", s.handleDeleteMeeting))
	mux.HandleFunc("GET /api/meetings/{id}/segments", s.command("get_meeting_segments", s.handleGetSegments))
	mux.HandleFunc("POST /api/meetings/{id}/segments", s.command("add_meeting_segment", s.handleAddSegment))
	mux.HandleFunc("DELETE /api/meetings/{id}/segments", s.command("delete_meeting_segments", s.handleDeleteSegments))
	mux.HandleFunc("POST /api/meetings/{id}/export", s.command("export_meeting_data", s.handleExport))

	mux.HandleFunc("GET /api/audio/quality", s.command("get_audio_quality_info", s.handleAudioQuality))
	mux.HandleFunc("GET /api/audio/debug-paths", s.command("debug_meeting_audio_paths", s.handleDebugPaths))
	mux.HandleFunc("POST /api/audio/reconcile", s.command("update_audio_file_paths", s.handleReconcilePaths))

	return mux
}

// ListenAndServe runs the surface on the configured bind address until
// the listener fails.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Address, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("command surface listening")
	return srv.ListenAndServe()
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) (int, error)

// command wraps a handler with per-command metrics and error
// serialization.
func (s *Server) command(name string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := h(w, r)
		if err != nil {
			status = statusForCode(meeting.ErrorCode(err))
			s.writeError(w, status, err)
			s.logger.Warn().Err(err).Str("command", name).Msg("command failed")
		}
		metrics.RecordCommand(name, status)
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	var body errorBody
	body.Error.Code = meeting.ErrorCode(err)
	body.Error.Message = err.Error()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("encoding response")
	}
	return status, nil
}

func decodeBody[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, fmt.Errorf("%w: empty request body", meeting.ErrIO)
	}
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return v, fmt.Errorf("%w: decoding request: %v", meeting.ErrIO, err)
	}
	return v, nil
}

// statusForCode maps taxonomy tags onto HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case "NotFound", "FileMissing", "DeviceNotFound", "ModelMissing":
		return http.StatusNotFound
	case "AlreadyRecording", "NotRecording", "NotInitialized":
		return http.StatusConflict
	case "OutOfRange", "UnsupportedFormat", "UnsupportedSampleFormat", "DecodeError":
		return http.StatusBadRequest
	case "PermissionDenied":
		return http.StatusForbidden
	case "EnvMissing":
		return http.StatusPreconditionFailed
	case "ProviderFailure":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- devices ---

type deviceListResponse struct {
	InputDevices  []audio.Device `json:"input_devices"`
	OutputDevices []audio.Device `json:"output_devices"`
}

func (s *Server) handleGetDevices(w http.ResponseWriter, r *http.Request) (int, error) {
	inputs, outputs, err := s.devices.List()
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, deviceListResponse{InputDevices: inputs, OutputDevices: outputs})
}

type selectDevicesRequest struct {
	MicDevice    *string `json:"mic_device"`
	SystemDevice *string `json:"system_device"`
}

func (s *Server) handleSetDevices(w http.ResponseWriter, r *http.Request) (int, error) {
	req, err := decodeBody[selectDevicesRequest](r)
	if err != nil {
		return 0, err
	}
	s.controller.SetDevices(req.MicDevice, req.SystemDevice)
	return s.writeJSON(w, http.StatusOK, map[string]string{"message": "devices updated"})
}

func (s *Server) handleGetSelectedDevices(w http.ResponseWriter, r *http.Request) (int, error) {
	mic, system := s.controller.SelectedDevices()
	return s.writeJSON(w, http.StatusOK, map[string]string{"mic_device": mic, "system_device": system})
}

func (s *Server) handleTestMic(w http.ResponseWriter, r *http.Request) (int, error) {
	report, err := s.devices.TestMicrophoneAccess()
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"report": report})
}

// --- recognizer ---

func (s *Server) handleInitWhisper(w http.ResponseWriter, r *http.Request) (int, error) {
	if err := s.recognizer.Init(s.cfg.Paths.ModelsDir); err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"message": "whisper initialized"})
}

type transcribeRequest struct {
	AudioPath string `json:"audio_path"`
	Language  string `json:"language"`
}

func (s *Server) loadAudio(path string) ([]float32, error) {
	samples, _, err := audio.ReadWAV(path)
	return samples, err
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) (int, error) {
	req, err := decodeBody[transcribeRequest](r)
	if err != nil {
		return 0, err
	}
	samples, err := s.loadAudio(req.AudioPath)
	if err != nil {
		return 0, err
	}
	text, err := s.recognizer.Transcribe(samples, req.Language)
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleTranscribeSegments(w http.ResponseWriter, r *http.Request) (int, error) {
	req, err := decodeBody[transcribeRequest](r)
	if err != nil {
		return 0, err
	}
	samples, err := s.loadAudio(req.AudioPath)
	if err != nil {
		return 0, err
	}
	res, err := s.recognizer.TranscribeWithSegments(samples, req.Language)
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, res)
}

// --- realtime ---

func (s *Server) handleEnableRealtime(w http.ResponseWriter, r *http.Request) (int, error) {
	if err := s.controller.EnableRealtime(); err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"message": "realtime transcription enabled"})
}

func (s *Server) handleDisableRealtime(w http.ResponseWriter, r *http.Request) (int, error) {
	s.controller.DisableRealtime()
	return s.writeJSON(w, http.StatusOK, map[string]string{"message": "realtime transcription disabled"})
}

// --- session ---

func (s *Server) handleRecordingStatus(w http.ResponseWriter, r *http.Request) (int, error) {
	return s.writeJSON(w, http.StatusOK, map[string]string{"status": s.controller.Status()})
}

func (s *Server) handleStartRecording(w http.ResponseWriter, r *http.Request) (int, error) {
	res, err := s.controller.StartRecording()
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStopRecording(w http.ResponseWriter, r *http.Request) (int, error) {
	res, err := s.controller.StopRecording()
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, res)
}

// --- file saves ---

type saveTextRequest struct {
	Content  string `json:"content"`
	Filename string `json:"filename"`
}

func (s *Server) saveText(req saveTextRequest, defaultPrefix, ext string) (string, error) {
	name := req.Filename
	if name == "" {
		name = fmt.Sprintf("%s_%s.%s", defaultPrefix, time.Now().Format("20060102_150405"), ext)
	}
	if err := os.MkdirAll(s.cfg.Paths.ExportsDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: creating exports dir: %v", meeting.ErrIO, err)
	}
	path := filepath.Join(s.cfg.Paths.ExportsDir, filepath.Base(name))
	if err := os.WriteFile(path, []byte(req.Content), 0o644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", meeting.ErrIO, path, err)
	}
	return path, nil
}

func (s *Server) handleSaveTranscript(w http.ResponseWriter, r *http.Request) (int, error) {
	req, err := decodeBody[saveTextRequest](r)
	if err != nil {
		return 0, err
	}
	path, err := s.saveText(req, "transcript", "txt")
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handleSaveMinutes(w http.ResponseWriter, r *http.Request) (int, error) {
	req, err := decodeBody[saveTextRequest](r)
	if err != nil {
		return 0, err
	}
	path, err := s.saveText(req, "minutes", "md")
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

type saveAudioRequest struct {
	Filename   string `json:"filename"`
	DataBase64 string `json:"data_base64"`
}

func (s *Server) handleSaveUploadedAudio(w http.ResponseWriter, r *http.Request) (int, error) {
	req, err := decodeBody[saveAudioRequest](r)
	if err != nil {
		return 0, err
	}
	data, err := base64.StdEncoding.DecodeString(req.DataBase64)
	if err != nil {
		return 0, fmt.Errorf("%w: decoding audio payload: %v", meeting.ErrIO, err)
	}
	if err := os.MkdirAll(s.cfg.Paths.RecordingsDir, 0o755); err != nil {
		return 0, fmt.Errorf("%w: creating recordings dir: %v", meeting.ErrIO, err)
	}
	name := req.Filename
	if name == "" {
		name = fmt.Sprintf("upload_%s.wav", time.Now().Format("20060102_150405"))
	}
	path := filepath.Join(s.cfg.Paths.RecordingsDir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("%w: writing %s: %v", meeting.ErrIO, path, err)
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// --- minutes ---

type minutesRequest struct {
	Transcript string `json:"transcript"`
	Language   string `json:"language"`
}

func (s *Server) handleMinutes(provider func() minutes.Provider, name string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) (int, error) {
		req, err := decodeBody[minutesRequest](r)
		if err != nil {
			return 0, err
		}
		text, err := provider().Generate(r.Context(), req.Transcript, req.Language)
		if err != nil {
			return 0, err
		}
		return s.writeJSON(w, http.StatusOK, map[string]string{"minutes": text, "provider": name})
	}
}

// --- gains ---

type gainsBody struct {
	MicGain    float32 `json:"mic_gain"`
	SystemGain float32 `json:"system_gain"`
}

func (s *Server) handleGetGains(w http.ResponseWriter, r *http.Request) (int, error) {
	mic, system := s.controller.Gains()
	return s.writeJSON(w, http.StatusOK, gainsBody{MicGain: mic, SystemGain: system})
}

func (s *Server) handleSetGains(w http.ResponseWriter, r *http.Request) (int, error) {
	req, err := decodeBody[gainsBody](r)
	if err != nil {
		return 0, err
	}
	if err := s.controller.SetGains(req.MicGain, req.SystemGain); err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"message": "gains updated"})
}

// --- meetings ---

func (s *Server) handleListMeetings(w http.ResponseWriter, r *http.Request) (int, error) {
	meetings, err := s.store.GetAll()
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, meetings)
}

type createMeetingRequest struct {
	Title    string  `json:"title"`
	Language *string `json:"language"`
}

func (s *Server) handleCreateMeeting(w http.ResponseWriter, r *http.Request) (int, error) {
	req, err := decodeBody[createMeetingRequest](r)
	if err != nil {
		return 0, err
	}
	if req.Title == "" {
		req.Title = "Meeting " + time.Now().Format("2006-01-02 15:04:05")
	}
	m, err := s.store.Create(req.Title, req.Language)
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleSearchMeetings(w http.ResponseWriter, r *http.Request) (int, error) {
	meetings, err := s.store.Search(r.URL.Query().Get("q"))
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, meetings)
}

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) (int, error) {
	m, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleUpdateMeeting(w http.ResponseWriter, r *http.Request) (int, error) {
	m, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		return 0, err
	}
	patch, err := decodeBody[meeting.Meeting](r)
	if err != nil {
		return 0, err
	}
	if patch.Title != "" {
		m.Title = patch.Title
	}
	if patch.Transcript != nil {
		m.Transcript = patch.Transcript
	}
	if patch.MeetingMinutes != nil {
		m.MeetingMinutes = patch.MeetingMinutes
	}
	if patch.Language != nil {
		m.Language = patch.Language
	}
	if patch.AIProvider != nil {
		m.AIProvider = patch.AIProvider
	}
	if patch.DurationSeconds != nil {
		m.DurationSeconds = patch.DurationSeconds
	}
	if patch.AudioFilePath != nil {
		m.AudioFilePath = patch.AudioFilePath
	}
	if err := s.store.Update(m); err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMeeting(w http.ResponseWriter, r *http.Request) (int, error) {
	if err := s.store.Delete(r.PathValue("id")); err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"message": "meeting deleted"})
}

func (s *Server) handleGetSegments(w http.ResponseWriter, r *http.Request) (int, error) {
	segments, err := s.store.GetSegments(r.PathValue("id"))
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, segments)
}

func (s *Server) handleAddSegment(w http.ResponseWriter, r *http.Request) (int, error) {
	seg, err := decodeBody[meeting.Segment](r)
	if err != nil {
		return 0, err
	}
	seg.MeetingID = r.PathValue("id")
	if err := s.store.AddSegment(&seg); err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusCreated, seg)
}

func (s *Server) handleDeleteSegments(w http.ResponseWriter, r *http.Request) (int, error) {
	if err := s.store.DeleteSegments(r.PathValue("id")); err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"message": "segments deleted"})
}

// --- export ---

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) (int, error) {
	opts, err := decodeBody[export.Options](r)
	if err != nil {
		return 0, err
	}
	m, err := s.store.Get(r.PathValue("id"))
	if err != nil {
		return 0, err
	}
	var segments []meeting.Segment
	if opts.IncludeSegments {
		segments, err = s.store.GetSegments(m.ID)
		if err != nil {
			return 0, err
		}
	}
	path, err := s.exporter.Export(m, segments, opts)
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

// --- audio utilities ---

func (s *Server) handleAudioQuality(w http.ResponseWriter, r *http.Request) (int, error) {
	path := r.URL.Query().Get("path")
	if path == "" {
		return 0, fmt.Errorf("%w: path query parameter required", meeting.ErrFileMissing)
	}
	info, err := audio.ReadQualityInfo(path)
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDebugPaths(w http.ResponseWriter, r *http.Request) (int, error) {
	report, err := s.store.DebugAudioPaths()
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]string{"report": report})
}

func (s *Server) handleReconcilePaths(w http.ResponseWriter, r *http.Request) (int, error) {
	updated, report, err := s.store.ReconcileAudioPaths(s.cfg.Paths.RecordingsDir)
	if err != nil {
		return 0, err
	}
	return s.writeJSON(w, http.StatusOK, map[string]any{"updated": updated, "report": report})
}
