package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"

	"github.com/tabgroupd/tabgroupd/internal/config"
	"github.com/tabgroupd/tabgroupd/internal/daemon"
	"github.com/tabgroupd/tabgroupd/internal/platform"
	"github.com/tabgroupd/tabgroupd/internal/runtimepath"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	manager      *daemon.Manager
	reloadChan   chan struct{}
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server over the daemon manager.
func NewServer(manager *daemon.Manager, reloadChan chan struct{}) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		manager:    manager,
		reloadChan: reloadChan,
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	go s.acceptLoop()

	return nil
}

// Stop shuts down the listener and removes the socket.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()
	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	resp := s.handleCommand(req)

	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

func (s *Server) sendError(conn net.Conn, msg string) {
	data, err := NewErrorResponse(msg).Marshal()
	if err != nil {
		return
	}
	conn.Write(append(data, '\n'))
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandReload:
		return s.handleReload()
	case CommandGetStatus:
		return s.handleGetStatus()
	case CommandListGroups:
		return s.handleListGroups()
	case CommandCreateGroup:
		return s.handleCreateGroup(req.Payload)
	case CommandAddWindow:
		return s.handleAddWindow(req.Payload)
	case CommandReleaseWindow:
		return s.handleReleaseWindow(req.Payload)
	case CommandDissolveGroup:
		return s.handleDissolveGroup(req.Payload)
	case CommandRenameGroup:
		return s.handleRenameGroup(req.Payload)
	case CommandSetPinned:
		return s.handleSetPinned(req.Payload)
	case CommandMoveTabs:
		return s.handleMoveTabs(req.Payload)
	case CommandSwitchTo:
		return s.handleSwitchTo(req.Payload)
	case CommandSwitcherItems:
		return s.handleSwitcherItems()
	case CommandListWindows:
		return s.handleListWindows()
	case CommandSnapshotSave:
		return s.handleSnapshotSave(req.Payload)
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handleReload reloads the configuration
func (s *Server) handleReload() *Response {
	log.Println("IPC: Received RELOAD command")

	newCfg, err := config.Load()
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to reload config: %v", err))
	}
	s.manager.Reload(newCfg)

	// Notify the main daemon via channel (non-blocking)
	select {
	case s.reloadChan <- struct{}{}:
	default:
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleGetStatus() *Response {
	groups, windows, uptime := s.manager.Stats()
	resp, _ := NewOKResponse(StatusData{
		GroupCount:    groups,
		WindowCount:   windows,
		UptimeSeconds: int64(uptime.Seconds()),
		DaemonRunning: true,
	})
	return resp
}

func (s *Server) handleListGroups() *Response {
	resp, _ := NewOKResponse(GroupsData{Groups: s.manager.Groups()})
	return resp
}

func (s *Server) handleCreateGroup(payload json.RawMessage) *Response {
	var p CreateGroupPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	info, err := s.manager.CreateGroup(windowIDs(p.Windows), p.Name)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(info)
	return resp
}

func (s *Server) handleAddWindow(payload json.RawMessage) *Response {
	var p WindowTargetPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := s.manager.AddWindow(p.GroupID, platform.WindowID(p.Window)); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleReleaseWindow(payload json.RawMessage) *Response {
	var p WindowTargetPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := s.manager.ReleaseWindow(platform.WindowID(p.Window)); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleDissolveGroup(payload json.RawMessage) *Response {
	var p GroupTargetPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := s.manager.DissolveGroup(p.GroupID); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleRenameGroup(payload json.RawMessage) *Response {
	var p GroupTargetPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := s.manager.RenameGroup(p.GroupID, p.Name); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSetPinned(payload json.RawMessage) *Response {
	var p SetPinnedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := s.manager.SetPinned(p.GroupID, windowIDs(p.Windows), p.Pinned); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleMoveTabs(payload json.RawMessage) *Response {
	var p MoveTabsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := s.manager.MoveTabs(p.GroupID, windowIDs(p.Windows), p.ToIndex); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSwitchTo(payload json.RawMessage) *Response {
	var p WindowTargetPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := s.manager.SwitchTo(platform.WindowID(p.Window)); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleSwitcherItems() *Response {
	items, err := s.manager.SwitcherItems()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(ItemsData{Items: items})
	return resp
}

func (s *Server) handleSnapshotSave(payload json.RawMessage) *Response {
	var p SnapshotSavePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid payload: %v", err))
	}
	if err := s.manager.SaveSnapshot(p.GroupID, p.Name); err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleListWindows() *Response {
	windows, err := s.manager.ListWindows()
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	resp, _ := NewOKResponse(WindowsData{Windows: windows})
	return resp
}

func windowIDs(ids []uint32) []platform.WindowID {
	out := make([]platform.WindowID, len(ids))
	for i, id := range ids {
		out[i] = platform.WindowID(id)
	}
	return out
}
