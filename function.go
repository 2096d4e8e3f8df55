package scramble

import (
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	json "github.com/goccy/go-json"

	"crosswarped.com/scramble/pkg/config"
	"crosswarped.com/scramble/pkg/kpuzzle"
	"crosswarped.com/scramble/pkg/phase"
	"crosswarped.com/scramble/pkg/primitives"
)

func init() {
	functions.HTTP("SolvePhase", SolvePhase)
}

var (
	functionEngineOnce sync.Once
	functionEngine     *Engine
	functionEngineErr  error
)

func sharedEngine() (*Engine, error) {
	functionEngineOnce.Do(func() {
		cfg, err := config.Load(os.Getenv("SCRAMBLE_CONFIG"))
		if err != nil {
			functionEngineErr = err
			return
		}
		functionEngine, functionEngineErr = NewEngine(cfg)
	})
	return functionEngine, functionEngineErr
}

// SolvePhaseRequest is the body accepted by the SolvePhase function.
type SolvePhaseRequest struct {
	Phase    string `json:"phase"`
	Scramble string `json:"scramble"`
}

// SolvePhaseResponse is the body returned by the SolvePhase function.
type SolvePhaseResponse struct {
	Puzzle   string `json:"puzzle"`
	Phase    string `json:"phase"`
	Solution string `json:"solution"`
	Length   int    `json:"length"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SolvePhase is the Cloud Function entry point. The engine is configured from the file named by
// SCRAMBLE_CONFIG and the environment.
func SolvePhase(w http.ResponseWriter, r *http.Request) {
	e, err := sharedEngine()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	SolvePhaseHandler(e).ServeHTTP(w, r)
}

// SolvePhaseHandler serves phase solutions from e.
func SolvePhaseHandler(e *Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "use POST"})
			return
		}
		var req SolvePhaseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
			return
		}
		if req.Phase == "" {
			if names := e.PhaseNames(); len(names) > 0 {
				req.Phase = names[0]
			}
		}
		scramble, err := primitives.ParseAlg(req.Scramble)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}

		solution, err := e.SolvePhase(r.Context(), req.Phase, scramble)
		switch {
		case errors.Is(err, ErrUnknownPhase):
			writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		case errors.Is(err, ErrOutsidePhase), errors.Is(err, phase.ErrUnreachable):
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		case errors.Is(err, kpuzzle.ErrUnknownMove):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		case err != nil:
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, SolvePhaseResponse{
			Puzzle:   e.Puzzle().Name(),
			Phase:    req.Phase,
			Solution: solution.String(),
			Length:   solution.Length(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
