// internal/services/progress_service.go
package services

import (
	"sort"
	"sync"
	"time"

	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/google/uuid"
)

// 任务状态
const (
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

// finishedRetention 结束的任务保留多久，供刷新页面的客户端查询结果
const finishedRetention = time.Minute

// ProgressUpdate 一次生成任务的进度
type ProgressUpdate struct {
	TaskID      string    `json:"task_id"`
	WorkspaceID string    `json:"workspace_id"`
	Kind        string    `json:"kind"` // scene, character, edit
	Completed   int       `json:"completed"`
	Total       int       `json:"total"`
	Progress    int       `json:"progress"` // 0-100
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	StartTime   time.Time `json:"start_time"`
	UpdateTime  time.Time `json:"update_time"`
}

// ProgressTracker 跟踪一次生成请求中各张图像的完成情况。
// nil 跟踪器的所有方法都不做任何事。
type ProgressTracker struct {
	service *ProgressService
	mutex   sync.Mutex
	state   ProgressUpdate
}

// ProgressService 管理生成任务的进度并把变化推送给工作区订阅者
type ProgressService struct {
	trackers  map[string]*ProgressTracker
	mutex     sync.RWMutex
	publisher EventPublisher
	now       func() time.Time
}

// NewProgressService 创建进度服务，publisher 可为 nil
func NewProgressService(publisher EventPublisher) *ProgressService {
	return &ProgressService{
		trackers:  make(map[string]*ProgressTracker),
		publisher: publisher,
		now:       time.Now,
	}
}

// Start 创建新任务
func (s *ProgressService) Start(workspaceID, kind string, total int) *ProgressTracker {
	if s == nil {
		return nil
	}
	now := s.now()
	tracker := &ProgressTracker{
		service: s,
		state: ProgressUpdate{
			TaskID:      uuid.NewString(),
			WorkspaceID: workspaceID,
			Kind:        kind,
			Total:       total,
			Status:      TaskRunning,
			StartTime:   now,
			UpdateTime:  now,
		},
	}

	s.mutex.Lock()
	s.trackers[tracker.state.TaskID] = tracker
	s.mutex.Unlock()

	tracker.publish(tracker.snapshot())
	return tracker
}

// List 工作区的任务，最新的在前。顺带清理过期的已结束任务
func (s *ProgressService) List(workspaceID string) []ProgressUpdate {
	s.CleanupCompletedTasks(finishedRetention)

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]ProgressUpdate, 0)
	for _, tracker := range s.trackers {
		if update := tracker.snapshot(); update.WorkspaceID == workspaceID {
			out = append(out, update)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// CleanupCompletedTasks 移除结束超过 maxAge 的任务
func (s *ProgressService) CleanupCompletedTasks(maxAge time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := s.now()
	for id, tracker := range s.trackers {
		update := tracker.snapshot()
		if update.Status != TaskRunning && now.Sub(update.UpdateTime) > maxAge {
			delete(s.trackers, id)
		}
	}
}

func (t *ProgressTracker) snapshot() ProgressUpdate {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.state
}

// Step 完成一张图像
func (t *ProgressTracker) Step() {
	if t == nil {
		return
	}
	t.mutex.Lock()
	if t.state.Status != TaskRunning || t.state.Completed >= t.state.Total {
		t.mutex.Unlock()
		return
	}
	t.state.Completed++
	t.state.Progress = t.state.Completed * 100 / t.state.Total
	t.state.UpdateTime = t.service.now()
	update := t.state
	t.mutex.Unlock()

	t.publish(update)
}

// Complete 标记任务完成
func (t *ProgressTracker) Complete() {
	t.finish(TaskCompleted, "")
}

// Fail 标记任务失败，之前完成的图像不会写入工作区
func (t *ProgressTracker) Fail(message string) {
	t.finish(TaskFailed, message)
}

func (t *ProgressTracker) finish(status, message string) {
	if t == nil {
		return
	}
	t.mutex.Lock()
	if t.state.Status != TaskRunning {
		t.mutex.Unlock()
		return
	}
	t.state.Status = status
	t.state.Message = message
	if status == TaskCompleted {
		t.state.Completed = t.state.Total
		t.state.Progress = 100
	}
	t.state.UpdateTime = t.service.now()
	update := t.state
	t.mutex.Unlock()

	t.publish(update)
}

// TaskID 任务ID
func (t *ProgressTracker) TaskID() string {
	if t == nil {
		return ""
	}
	return t.snapshot().TaskID
}

func (t *ProgressTracker) publish(update ProgressUpdate) {
	if t.service.publisher == nil {
		return
	}
	t.service.publisher.Publish(models.WorkspaceEvent{
		Type:        models.EventGenerationProgress,
		WorkspaceID: update.WorkspaceID,
		Payload: map[string]any{
			"task_id":   update.TaskID,
			"kind":      update.Kind,
			"completed": update.Completed,
			"total":     update.Total,
			"progress":  update.Progress,
			"status":    update.Status,
			"message":   update.Message,
		},
		Timestamp: update.UpdateTime,
	})
}
