package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"cubby/internal/daemon"
	"cubby/internal/logging"
	"cubby/internal/organize"
	"cubby/internal/services"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: services.WithComponent(ctx, "ipc")}
	if err := rpcServer.RegisterName(serviceName, srv); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Ping(_ PingRequest, resp *PingResponse) error {
	resp.Pong = true
	resp.PID = os.Getpid()
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status()
	resp.Running = status.Running
	resp.PID = status.PID
	resp.StartedAt = status.StartedAt
	resp.LockPath = status.LockPath
	resp.SocketPath = status.SocketPath
	resp.DatabasePath = status.DatabasePath
	resp.WatchActive = status.WatchActive
	resp.ScheduleActive = status.ScheduleActive
	if status.Run != nil {
		run := RunStatus(*status.Run)
		resp.Run = &run
	}
	return nil
}

func (s *service) Organize(req OrganizeRequest, resp *OrganizeResponse) error {
	runID, err := s.daemon.Organize(organize.Request{
		SourceRoot:      req.Source,
		DestinationRoot: req.Destination,
		DryRun:          req.DryRun,
	})
	if err != nil {
		return err
	}
	resp.RunID = runID
	s.log().Info("run started via IPC", logging.String(logging.FieldRunID, runID))
	return nil
}

func (s *service) StopRun(_ StopRunRequest, resp *StopRunResponse) error {
	resp.Stopped = s.daemon.StopRun()
	return nil
}

func (s *service) Categories(_ CategoriesRequest, resp *CategoriesResponse) error {
	snapshot := s.daemon.Categories()
	resp.Categories = make([]CategoryInfo, 0, len(snapshot))
	for _, cat := range snapshot {
		resp.Categories = append(resp.Categories, CategoryInfo{
			Name:       cat.Name,
			Folder:     cat.Folder,
			Extensions: cat.Extensions,
			Enabled:    cat.Enabled,
			Count:      cat.Count,
		})
	}
	return nil
}

func (s *service) AddCategory(req AddCategoryRequest, resp *AddCategoryResponse) error {
	return s.daemon.AddCategory(req.Name, req.Extensions, req.Folder)
}

func (s *service) SetCategoryEnabled(req SetCategoryEnabledRequest, resp *SetCategoryEnabledResponse) error {
	return s.daemon.SetCategoryEnabled(req.Name, req.Enabled)
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	records, err := s.daemon.History(s.ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Runs = make([]RunRecord, 0, len(records))
	for _, record := range records {
		resp.Runs = append(resp.Runs, RunRecord{
			ID:            record.ID,
			Source:        record.Source,
			Destination:   record.Destination,
			DryRun:        record.DryRun,
			Status:        record.Status,
			TotalFiles:    record.TotalFiles,
			Organized:     record.Organized,
			Uncategorized: record.Uncategorized,
			Categories:    record.Categories,
			ErrorMessage:  record.ErrorMessage,
			StartedAt:     record.StartedAt,
			FinishedAt:    record.FinishedAt,
		})
	}
	return nil
}

func (s *service) TailLogs(req TailLogsRequest, resp *TailLogsResponse) error {
	ctx := s.ctx
	wait := req.WaitMillis > 0
	if wait {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.WaitMillis)*time.Millisecond)
		defer cancel()
	}
	events, cursor, err := s.daemon.TailLogs(ctx, req.Cursor, req.Limit, wait)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	resp.Cursor = cursor
	resp.Events = make([]LogLine, 0, len(events))
	for _, event := range events {
		resp.Events = append(resp.Events, LogLine{
			Sequence:  event.Sequence,
			Timestamp: event.Timestamp,
			Level:     event.Level,
			Message:   event.Message,
			Component: event.Component,
			RunID:     event.RunID,
			Trigger:   event.Trigger,
			Fields:    event.Fields,
		})
	}
	return nil
}

func (s *service) Shutdown(_ ShutdownRequest, resp *ShutdownResponse) error {
	s.log().Info("shutdown requested via IPC")
	s.daemon.RequestShutdown()
	resp.ShuttingDown = true
	return nil
}
