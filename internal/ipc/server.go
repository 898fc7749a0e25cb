package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"
	"time"

	"log/slog"

	"intercept/internal/daemon"
	"intercept/internal/logging"
	"intercept/internal/logs"
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
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Intercept", srv); err != nil {
		listener.Close()
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
	if s.logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(s.logger, "ipc")
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	*resp = s.daemon.Status()
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.log().Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.log().Info("daemon stopped via IPC")
	return nil
}

func (s *service) Correlations(req CorrelationsRequest, resp *CorrelationsResponse) error {
	minConfidence := s.daemon.MinConfidence()
	if req.MinConfidence != nil {
		if *req.MinConfidence < 0 || *req.MinConfidence > 1 {
			return fmt.Errorf("min_confidence %v out of range", *req.MinConfidence)
		}
		minConfidence = *req.MinConfidence
	}
	includeHistorical := true
	if req.IncludeHistorical != nil {
		includeHistorical = *req.IncludeHistorical
	}
	*resp = s.daemon.Correlations(s.ctx, minConfidence, includeHistorical)
	return nil
}

func (s *service) Analyze(req AnalyzeRequest, resp *AnalyzeResponse) error {
	result, err := s.daemon.Analyze(s.ctx, req.WifiID, req.BTID)
	if err != nil {
		return err
	}
	*resp = result
	return nil
}

func (s *service) SettingGet(req SettingGetRequest, resp *SettingGetResponse) error {
	value, found, err := s.daemon.Store().GetSetting(s.ctx, req.Key)
	if err != nil {
		return err
	}
	resp.Key = req.Key
	resp.Value = value
	resp.Found = found
	return nil
}

func (s *service) SettingSet(req SettingSetRequest, resp *SettingSetResponse) error {
	if err := s.daemon.Store().SetSetting(s.ctx, req.Key, req.Value); err != nil {
		return err
	}
	resp.Key = req.Key
	return nil
}

func (s *service) SettingDelete(req SettingDeleteRequest, resp *SettingDeleteResponse) error {
	deleted, err := s.daemon.Store().DeleteSetting(s.ctx, req.Key)
	if err != nil {
		return err
	}
	resp.Deleted = deleted
	return nil
}

func (s *service) SettingList(_ SettingListRequest, resp *SettingListResponse) error {
	settings, err := s.daemon.Store().AllSettings(s.ctx)
	if err != nil {
		return err
	}
	resp.Settings = settings
	return nil
}

func (s *service) GPS(_ GPSRequest, resp *GPSResponse) error {
	*resp = s.daemon.GPS()
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	logPath := s.daemon.LogPath()
	if logPath == "" {
		resp.Offset = 0
		return nil
	}
	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 && req.Follow {
		wait = time.Second
	}
	options := logs.TailOptions{
		Offset: req.Offset,
		Limit:  req.Limit,
		Follow: req.Follow,
		Wait:   wait,
	}
	ctx := s.ctx
	if req.Follow && wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(s.ctx, wait+500*time.Millisecond)
		defer cancel()
	}
	result, err := logs.Tail(ctx, logPath, options)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			resp.Offset = result.Offset
			return nil
		}
		return err
	}
	resp.Lines = result.Lines
	resp.Offset = result.Offset
	return nil
}
