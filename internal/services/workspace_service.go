// internal/services/workspace_service.go
package services

import (
	"sync"
	"time"

	apperrors "github.com/Corphon/SceneBoard/internal/errors"
	"github.com/Corphon/SceneBoard/internal/models"
	"github.com/Corphon/SceneBoard/internal/utils"
	"github.com/Corphon/SceneBoard/internal/workspace"
	"github.com/google/uuid"
)

// EventPublisher 接收工作区变更事件
type EventPublisher interface {
	Publish(event models.WorkspaceEvent)
}

// WorkspaceService 管理所有会话的工作区，长时间未访问的工作区会被回收
type WorkspaceService struct {
	mu         sync.RWMutex
	workspaces map[string]*workspaceEntry

	ttl       time.Duration
	publisher EventPublisher
	logger    *utils.Logger
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type workspaceEntry struct {
	ws       *workspace.Workspace
	lastUsed time.Time
}

// NewWorkspaceService 创建注册表并启动过期清理
func NewWorkspaceService(ttl time.Duration, publisher EventPublisher) *WorkspaceService {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	s := &WorkspaceService{
		workspaces: make(map[string]*workspaceEntry),
		ttl:        ttl,
		publisher:  publisher,
		logger:     utils.GetLogger(),
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	s.startCleanup(cleanupInterval(ttl))
	return s
}

func cleanupInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), 5*time.Minute)
}

// Create 新建工作区
func (s *WorkspaceService) Create() *workspace.Workspace {
	id := uuid.NewString()
	ws := workspace.New(id, workspace.WithNotifier(s.publish))

	s.mu.Lock()
	s.workspaces[id] = &workspaceEntry{ws: ws, lastUsed: s.now()}
	count := len(s.workspaces)
	s.mu.Unlock()

	s.logger.Info("🆕 工作区已创建", map[string]interface{}{"workspace_id": id, "active": count})
	return ws
}

// Get 获取工作区并刷新访问时间
func (s *WorkspaceService) Get(id string) (*workspace.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.workspaces[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("工作区不存在: "+id, nil)
	}
	entry.lastUsed = s.now()
	return entry.ws, nil
}

// Delete 删除工作区
func (s *WorkspaceService) Delete(id string) bool {
	s.mu.Lock()
	_, ok := s.workspaces[id]
	delete(s.workspaces, id)
	s.mu.Unlock()

	if ok {
		s.logger.Info("🗑️ 工作区已删除", map[string]interface{}{"workspace_id": id})
	}
	return ok
}

// Count 当前工作区数量
func (s *WorkspaceService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

// Close 停止清理协程
func (s *WorkspaceService) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}

func (s *WorkspaceService) publish(event models.WorkspaceEvent) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

func (s *WorkspaceService) startCleanup(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

// cleanupExpired 回收访问和修改都已超过 TTL 的工作区
func (s *WorkspaceService) cleanupExpired() int {
	now := s.now()

	s.mu.Lock()
	var expired []string
	for id, entry := range s.workspaces {
		last := entry.lastUsed
		if updated := entry.ws.UpdatedAt(); updated.After(last) {
			last = updated
		}
		if now.Sub(last) > s.ttl {
			expired = append(expired, id)
			delete(s.workspaces, id)
		}
	}
	s.mu.Unlock()

	if len(expired) > 0 {
		s.logger.Info("🧹 回收过期工作区", map[string]interface{}{"count": len(expired)})
	}
	return len(expired)
}
