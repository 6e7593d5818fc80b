package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/models"
	"github.com/OybekDeveloper/leora.v2-sub001/internal/planner"
)

type UpdateGoalRequest struct {
	ID     string            `json:"id"`
	Update models.GoalUpdate `json:"update"`
}

type GoalResponse struct {
	Goal *models.Goal `json:"goal"`
}

type AddCheckInRequest struct {
	GoalID  string  `json:"goalId"`
	Value   float64 `json:"value"`
	Note    string  `json:"note,omitempty"`
	DateKey string  `json:"dateKey,omitempty"`
}

// CheckInResponse carries the stored check-in and the goal after it. CheckIn
// is nil when a money check-in was booked through finance but did not come
// back as a check-in.
type CheckInResponse struct {
	CheckIn *models.GoalCheckIn `json:"checkIn,omitempty"`
	Goal    *models.Goal        `json:"goal"`
}

type RemoveCheckInRequest struct {
	GoalID    string `json:"goalId"`
	CheckInID string `json:"checkInId"`
}

type UpdateHabitRequest struct {
	ID     string             `json:"id"`
	Update models.HabitUpdate `json:"update"`
}

type HabitDayRequest struct {
	ID      string                `json:"id"`
	DateKey string                `json:"dateKey"`
	Status  models.HabitDayStatus `json:"status,omitempty"`
}

type HabitResponse struct {
	Habit *models.Habit `json:"habit"`
}

type UpdateTaskRequest struct {
	ID     string            `json:"id"`
	Update models.TaskUpdate `json:"update"`
}

type TaskStatusRequest struct {
	ID     string            `json:"id"`
	Status models.TaskStatus `json:"status"`
}

type TaskResponse struct {
	Task *models.Task `json:"task"`
}

type StartFocusRequest struct {
	TaskID string `json:"taskId,omitempty"`
	GoalID string `json:"goalId,omitempty"`
}

type FinishFocusRequest struct {
	ID string `json:"id"`

	// Minutes defaults to the time elapsed since the session started.
	Minutes float64 `json:"minutes,omitempty"`
}

type FocusResponse struct {
	Session *models.FocusSession `json:"session"`
}

type PlannerStateResponse struct {
	State *models.PlannerState `json:"state"`
}

// PlannerService implements leora.v1.PlannerService.
type PlannerService struct {
	store *planner.Store
}

// NewPlannerService creates a new PlannerService backed by store.
func NewPlannerService(store *planner.Store) *PlannerService {
	return &PlannerService{store: store}
}

// NewPlannerServiceHandler builds the HTTP handler of svc and returns the
// path to mount it on.
func NewPlannerServiceHandler(svc *PlannerService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(PlannerServiceName, opts)

	unary(p, "CreateGoal", svc.CreateGoal)
	unary(p, "UpdateGoal", svc.UpdateGoal)
	unary(p, "DeleteGoal", svc.DeleteGoal)
	unary(p, "GetGoal", svc.GetGoal)
	unary(p, "AddGoalCheckIn", svc.AddGoalCheckIn)
	unary(p, "RemoveGoalCheckIn", svc.RemoveGoalCheckIn)

	unary(p, "CreateHabit", svc.CreateHabit)
	unary(p, "UpdateHabit", svc.UpdateHabit)
	unary(p, "LogHabitDay", svc.LogHabitDay)
	unary(p, "ClearHabitDay", svc.ClearHabitDay)
	unary(p, "DeleteHabit", svc.DeleteHabit)

	unary(p, "CreateTask", svc.CreateTask)
	unary(p, "UpdateTask", svc.UpdateTask)
	unary(p, "UpdateTaskStatus", svc.UpdateTaskStatus)
	unary(p, "DeleteTask", svc.DeleteTask)

	unary(p, "StartFocus", svc.StartFocus)
	unary(p, "FinishFocus", svc.FinishFocus)
	unary(p, "CancelFocus", svc.CancelFocus)

	unary(p, "GetState", svc.GetState)

	return p.path(), p.mux
}

func (s *PlannerService) CreateGoal(ctx context.Context, req *models.Goal) (*GoalResponse, error) {
	g, err := s.store.CreateGoal(ctx, *req, models.OriginUser)
	if err != nil {
		return nil, err
	}
	slog.Info("Goal created", "goal_id", g.ID, "metric", g.MetricType, "target", g.TargetValue)
	return &GoalResponse{Goal: g}, nil
}

func (s *PlannerService) UpdateGoal(ctx context.Context, req *UpdateGoalRequest) (*GoalResponse, error) {
	g, err := s.store.UpdateGoal(ctx, req.ID, req.Update, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &GoalResponse{Goal: g}, nil
}

func (s *PlannerService) DeleteGoal(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteGoal(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	slog.Info("Goal deleted", "goal_id", req.ID)
	return &Empty{}, nil
}

func (s *PlannerService) GetGoal(_ context.Context, req *IDRequest) (*GoalResponse, error) {
	g, err := s.store.Goal(req.ID)
	if err != nil {
		return nil, err
	}
	return &GoalResponse{Goal: g}, nil
}

// AddGoalCheckIn records manual progress. On money goals the amount is
// booked as finance activity first.
func (s *PlannerService) AddGoalCheckIn(ctx context.Context, req *AddCheckInRequest) (*CheckInResponse, error) {
	c, err := s.store.AddGoalCheckIn(ctx, planner.CheckInInput{
		GoalID:     req.GoalID,
		Value:      req.Value,
		Note:       req.Note,
		SourceType: models.SourceManual,
		DateKey:    req.DateKey,
	}, models.OriginUser)
	if err != nil {
		return nil, err
	}
	g, err := s.store.Goal(req.GoalID)
	if err != nil {
		return nil, err
	}
	return &CheckInResponse{CheckIn: c, Goal: g}, nil
}

func (s *PlannerService) RemoveGoalCheckIn(ctx context.Context, req *RemoveCheckInRequest) (*GoalResponse, error) {
	if err := s.store.RemoveGoalCheckIn(ctx, req.GoalID, req.CheckInID, models.OriginUser); err != nil {
		return nil, err
	}
	g, err := s.store.Goal(req.GoalID)
	if err != nil {
		return nil, err
	}
	return &GoalResponse{Goal: g}, nil
}

func (s *PlannerService) CreateHabit(ctx context.Context, req *models.Habit) (*HabitResponse, error) {
	h, err := s.store.CreateHabit(ctx, *req, models.OriginUser)
	if err != nil {
		return nil, err
	}
	slog.Info("Habit created", "habit_id", h.ID, "goals", len(h.GoalIDs))
	return &HabitResponse{Habit: h}, nil
}

func (s *PlannerService) UpdateHabit(ctx context.Context, req *UpdateHabitRequest) (*HabitResponse, error) {
	h, err := s.store.UpdateHabit(ctx, req.ID, req.Update, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &HabitResponse{Habit: h}, nil
}

func (s *PlannerService) LogHabitDay(ctx context.Context, req *HabitDayRequest) (*HabitResponse, error) {
	status := req.Status
	if status == "" {
		status = models.HabitDone
	}
	h, err := s.store.LogHabitDay(ctx, req.ID, req.DateKey, status, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &HabitResponse{Habit: h}, nil
}

func (s *PlannerService) ClearHabitDay(ctx context.Context, req *HabitDayRequest) (*HabitResponse, error) {
	h, err := s.store.ClearHabitDay(ctx, req.ID, req.DateKey, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &HabitResponse{Habit: h}, nil
}

func (s *PlannerService) DeleteHabit(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteHabit(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *PlannerService) CreateTask(ctx context.Context, req *models.Task) (*TaskResponse, error) {
	t, err := s.store.CreateTask(ctx, *req, models.OriginUser)
	if err != nil {
		return nil, err
	}
	slog.Info("Task created", "task_id", t.ID, "goal_id", t.GoalID)
	return &TaskResponse{Task: t}, nil
}

func (s *PlannerService) UpdateTask(ctx context.Context, req *UpdateTaskRequest) (*TaskResponse, error) {
	t, err := s.store.UpdateTask(ctx, req.ID, req.Update, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &TaskResponse{Task: t}, nil
}

func (s *PlannerService) UpdateTaskStatus(ctx context.Context, req *TaskStatusRequest) (*TaskResponse, error) {
	t, err := s.store.UpdateTaskStatus(ctx, req.ID, req.Status, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &TaskResponse{Task: t}, nil
}

func (s *PlannerService) DeleteTask(ctx context.Context, req *IDRequest) (*Empty, error) {
	if err := s.store.DeleteTask(ctx, req.ID, models.OriginUser); err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

func (s *PlannerService) StartFocus(ctx context.Context, req *StartFocusRequest) (*FocusResponse, error) {
	fs, err := s.store.StartFocus(ctx, planner.FocusInput{TaskID: req.TaskID, GoalID: req.GoalID}, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &FocusResponse{Session: fs}, nil
}

func (s *PlannerService) FinishFocus(ctx context.Context, req *FinishFocusRequest) (*FocusResponse, error) {
	fs, err := s.store.FinishFocus(ctx, req.ID, req.Minutes, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &FocusResponse{Session: fs}, nil
}

func (s *PlannerService) CancelFocus(ctx context.Context, req *IDRequest) (*FocusResponse, error) {
	fs, err := s.store.CancelFocus(ctx, req.ID, models.OriginUser)
	if err != nil {
		return nil, err
	}
	return &FocusResponse{Session: fs}, nil
}

// GetState returns a copy of every planner collection.
func (s *PlannerService) GetState(_ context.Context, _ *Empty) (*PlannerStateResponse, error) {
	return &PlannerStateResponse{State: s.store.State()}, nil
}
