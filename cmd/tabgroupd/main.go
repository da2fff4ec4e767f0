package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/tabgroupd/tabgroupd/internal/config"
	"github.com/tabgroupd/tabgroupd/internal/daemon"
	"github.com/tabgroupd/tabgroupd/internal/hotkeys"
	"github.com/tabgroupd/tabgroupd/internal/ipc"
	"github.com/tabgroupd/tabgroupd/internal/mcp"
	"github.com/tabgroupd/tabgroupd/internal/platform"
	"github.com/tabgroupd/tabgroupd/internal/snapshot"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: tabgroupd daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: tabgroupd daemon")
			os.Exit(2)
		}
		runDaemon()
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "group":
		os.Exit(runGroup(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "switcher":
		os.Exit(runSwitcher(os.Args[2:]))
	case "switch":
		os.Exit(runSwitch(os.Args[2:]))
	case "snapshot":
		os.Exit(runSnapshot(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tabgroupd <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the tabgroupd daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  group list          List tab groups")
	fmt.Fprintln(w, "  group create        Group windows into a new tab group")
	fmt.Fprintln(w, "  group add           Add a window to a group")
	fmt.Fprintln(w, "  group release       Release a window from its group")
	fmt.Fprintln(w, "  group dissolve      Dissolve a group")
	fmt.Fprintln(w, "  group rename        Rename a group")
	fmt.Fprintln(w, "  group pin           Pin windows within their group")
	fmt.Fprintln(w, "  group unpin         Unpin windows within their group")
	fmt.Fprintln(w, "  group move          Move tabs within a group")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  windows             List manageable windows")
	fmt.Fprintln(w, "  switcher            Show switcher candidates in recency order")
	fmt.Fprintln(w, "  switch              Focus a window by ID")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  snapshot save       Save a group's layout")
	fmt.Fprintln(w, "  snapshot list       List saved snapshots")
	fmt.Fprintln(w, "  snapshot show       Show a saved snapshot")
	fmt.Fprintln(w, "  snapshot delete     Delete a saved snapshot")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'tabgroupd <command> --help' for command-specific options.")
}

// jsonOutput reports whether machine-readable output was requested,
// either explicitly or because stdout is not a terminal.
func jsonOutput(flagValue bool) bool {
	return flagValue || !term.IsTerminal(int(os.Stdout.Fd()))
}

func printJSON(v interface{}) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func parseWindowIDs(args []string) ([]uint32, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one window ID is required")
	}
	out := make([]uint32, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid window ID %q", arg)
		}
		out = append(out, uint32(id))
	}
	return out, nil
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("group_count:    %d\n", status.GroupCount)
	fmt.Printf("window_count:   %d\n", status.WindowCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runReload(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd reload")
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("Configuration reloaded")
	return 0
}

func runGroup(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd group <list|create|add|release|dissolve|rename|pin|unpin|move> [options]")
		return 2
	}
	switch args[0] {
	case "list":
		return runGroupList(args[1:])
	case "create":
		return runGroupCreate(args[1:])
	case "add":
		return runGroupAdd(args[1:])
	case "release":
		return runGroupRelease(args[1:])
	case "dissolve":
		return runGroupDissolve(args[1:])
	case "rename":
		return runGroupRename(args[1:])
	case "pin":
		return runGroupPin(args[1:], true)
	case "unpin":
		return runGroupPin(args[1:], false)
	case "move":
		return runGroupMove(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown group subcommand: %s\n", args[0])
		return 2
	}
}

func runGroupList(args []string) int {
	fs := flag.NewFlagSet("group list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	groups, err := ipc.NewClient().ListGroups()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if jsonOutput(*asJSON) {
		return printJSON(groups)
	}
	if len(groups) == 0 {
		fmt.Println("No groups")
		return 0
	}
	for _, g := range groups {
		name := g.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("%s  %s  (%d windows, %d pinned)\n", g.ID, name, len(g.Windows), g.PinnedCount)
		for i, w := range g.Windows {
			marker := " "
			if i == g.ActiveIndex {
				marker = "*"
			}
			tags := ""
			if w.Pinned {
				tags = " [pinned]"
			}
			if w.Separator {
				fmt.Printf("  %s ----------------\n", marker)
				continue
			}
			fmt.Printf("  %s 0x%08x  %s%s\n", marker, w.ID, w.Title, tags)
		}
	}
	return 0
}

func runGroupCreate(args []string) int {
	fs := flag.NewFlagSet("group create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Display name for the new group")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd group create [--name NAME] WINDOW_ID...")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	ids, err := parseWindowIDs(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	info, err := ipc.NewClient().CreateGroup(ids, *name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Created group %s with %d windows\n", info.ID, len(info.Windows))
	return 0
}

func runGroupAdd(args []string) int {
	fs := flag.NewFlagSet("group add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	groupID := fs.String("group", "", "Target group ID")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd group add --group GROUP_ID WINDOW_ID")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *groupID == "" || fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	ids, err := parseWindowIDs(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	if err := ipc.NewClient().AddWindow(*groupID, ids[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runGroupRelease(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd group release WINDOW_ID")
		return 2
	}
	ids, err := parseWindowIDs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := ipc.NewClient().ReleaseWindow(ids[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runGroupDissolve(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd group dissolve GROUP_ID")
		return 2
	}
	if err := ipc.NewClient().DissolveGroup(args[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runGroupRename(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd group rename GROUP_ID NAME")
		return 2
	}
	if err := ipc.NewClient().RenameGroup(args[0], args[1]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runGroupPin(args []string, pinned bool) int {
	verb := "pin"
	if !pinned {
		verb = "unpin"
	}
	fs := flag.NewFlagSet("group "+verb, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	groupID := fs.String("group", "", "Owning group ID")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tabgroupd group %s --group GROUP_ID WINDOW_ID...\n", verb)
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *groupID == "" {
		fs.Usage()
		return 2
	}
	ids, err := parseWindowIDs(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().SetPinned(*groupID, ids, pinned); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runGroupMove(args []string) int {
	fs := flag.NewFlagSet("group move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	groupID := fs.String("group", "", "Owning group ID")
	toIndex := fs.Int("to", 0, "Target tab index")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd group move --group GROUP_ID --to INDEX WINDOW_ID...")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *groupID == "" {
		fs.Usage()
		return 2
	}
	ids, err := parseWindowIDs(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().MoveTabs(*groupID, ids, *toIndex); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Output JSON")
	ungrouped := fs.Bool("ungrouped", false, "Only show windows outside any group")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	windows, err := ipc.NewClient().ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *ungrouped {
		filtered := windows[:0]
		for _, w := range windows {
			if w.GroupID == "" {
				filtered = append(filtered, w)
			}
		}
		windows = filtered
	}
	if jsonOutput(*asJSON) {
		return printJSON(windows)
	}
	for _, w := range windows {
		group := w.GroupID
		if group == "" {
			group = "-"
		}
		fmt.Printf("0x%08x  %-20s  %-36s  %s\n", w.ID, w.AppName, group, w.Title)
	}
	return 0
}

func runSwitcher(args []string) int {
	fs := flag.NewFlagSet("switcher", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	items, err := ipc.NewClient().SwitcherItems()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if jsonOutput(*asJSON) {
		return printJSON(items)
	}
	for i, item := range items {
		if item.Kind == "group" {
			fmt.Printf("%2d. [group] %s (%d windows)\n", i+1, item.Title, len(item.Windows))
			continue
		}
		fmt.Printf("%2d. 0x%08x  %s\n", i+1, item.Active, item.Title)
	}
	return 0
}

func runSwitch(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd switch WINDOW_ID")
		return 2
	}
	ids, err := parseWindowIDs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if err := ipc.NewClient().SwitchTo(ids[0]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSnapshot(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd snapshot <save|list|show|delete> [options]")
		return 2
	}
	switch args[0] {
	case "save":
		return runSnapshotSave(args[1:])
	case "list":
		names, err := snapshot.List()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return 0
	case "show":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: tabgroupd snapshot show NAME")
			return 2
		}
		snap, err := snapshot.Read(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return printJSON(snap)
	case "delete":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "Usage: tabgroupd snapshot delete NAME")
			return 2
		}
		if err := snapshot.Delete(args[1]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown snapshot subcommand: %s\n", args[0])
		return 2
	}
}

func runSnapshotSave(args []string) int {
	fs := flag.NewFlagSet("snapshot save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	groupID := fs.String("group", "", "Group ID to snapshot")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd snapshot save --group GROUP_ID NAME")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *groupID == "" || fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	name := fs.Arg(0)
	if err := ipc.NewClient().SaveSnapshot(*groupID, name); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("Saved snapshot %q\n", name)
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd config <validate|print>")
		return 2
	}
	switch args[0] {
	case "validate":
		path, err := config.DefaultConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if _, err := config.LoadFromPath(path); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid: %v\n", err)
			return 1
		}
		fmt.Printf("OK: %s\n", path)
		return 0
	case "print":
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		os.Stdout.Write(data)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runMCP(args []string) int {
	if len(args) != 1 || args[0] != "serve" {
		fmt.Fprintln(os.Stderr, "Usage: tabgroupd mcp serve")
		return 2
	}
	server, err := mcp.NewServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := server.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded (switcher hotkey: %s)", cfg.Hotkeys.Switcher)

	// Connect to display server
	backend, err := platform.NewLinuxBackendFromDisplay()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer backend.Disconnect()

	manager := daemon.NewManager(cfg, backend)

	// Seed the recency tail from the current stacking order so windows
	// that have never been focused still appear in the switcher.
	if stack, err := backend.StackingOrder(); err == nil {
		for _, id := range stack {
			manager.SightWindow(id)
		}
	}

	if err := backend.OnFocusChange(manager.HandleFocusChange); err != nil {
		log.Fatalf("Failed to subscribe to focus events: %v", err)
	}

	// Setup hotkey handler
	hotkeyHandler := hotkeys.NewHandler(backend, manager)
	if err := hotkeyHandler.RegisterAll(cfg.Hotkeys); err != nil {
		log.Fatalf("Failed to register hotkeys: %v", err)
	}

	// Create config reload channel
	reloadChan := make(chan struct{}, 1)

	// Start IPC server
	ipcServer, err := ipc.NewServer(manager, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// Setup reconciler
	reconcileLogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.LogLevel),
	}))
	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: time.Duration(cfg.ReconcileIntervalSec) * time.Second,
		Logger:   reconcileLogger,
	}, manager, windowLister(backend))

	// Clean up records from a previous daemon lifecycle before entering
	// the event loop.
	reconciler.ReconcileNow()

	reconcilerCtx, reconcilerCancel := context.WithCancel(context.Background())
	defer reconcilerCancel()
	go reconciler.Run(reconcilerCtx)

	// Watch the config file for edits and hot-reload.
	stopWatch := watchConfig(manager)
	defer stopWatch()

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					newCfg, err := config.Load()
					if err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					manager.Reload(newCfg)

				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down tabgroupd daemon...")
					reconcilerCancel()
					ipcServer.Stop()
					os.Exit(0)
				}

			case <-reloadChan:
				// Config already applied by the IPC handler; nothing
				// else holds per-component config copies.
			}
		}
	}()

	log.Println("tabgroupd daemon started, entering event loop...")
	backend.EventLoop()
}

// windowLister adapts the backend window list for the reconciler.
func windowLister(backend *platform.LinuxBackend) daemon.WindowLister {
	return func() ([]platform.WindowID, error) {
		windows, err := backend.ListWindows()
		if err != nil {
			return nil, err
		}
		ids := make([]platform.WindowID, len(windows))
		for i, w := range windows {
			ids[i] = w.ID
		}
		return ids, nil
	}
}

// watchConfig hot-reloads the configuration when the config file is
// written. Returns a stop function; failures to establish the watch are
// non-fatal (SIGHUP and the IPC RELOAD command still work).
func watchConfig(manager *daemon.Manager) func() {
	path, err := config.DefaultConfigPath()
	if err != nil {
		log.Printf("Config watch disabled: %v", err)
		return func() {}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("Config watch disabled: %v", err)
		return func() {}
	}

	// Watch the directory: editors replace the file on save, which
	// would silently drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		log.Printf("Config watch disabled: %v", err)
		watcher.Close()
		return func() {}
	}

	go func() {
		var debounce *time.Timer
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != path || !ev.Op.Has(fsnotify.Write|fsnotify.Create) {
					continue
				}
				// Editors emit several events per save; coalesce them.
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, func() {
					newCfg, err := config.Load()
					if err != nil {
						log.Printf("Config reload failed: %v", err)
						return
					}
					manager.Reload(newCfg)
					log.Println("Config file changed, reloaded")
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("Config watch error: %v", err)
			}
		}
	}()

	return func() { watcher.Close() }
}
