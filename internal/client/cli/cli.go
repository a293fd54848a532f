package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/iudanet/possync/internal/client/api"
	"github.com/iudanet/possync/internal/client/iocli"
	"github.com/iudanet/possync/internal/client/netstatus"
	"github.com/iudanet/possync/internal/client/queue"
	"github.com/iudanet/possync/internal/client/session"
	"github.com/iudanet/possync/internal/client/shellproxy"
	"github.com/iudanet/possync/internal/client/storage"
	"github.com/iudanet/possync/internal/client/sync"
)

// Cli связывает команды терминала с сервисами клиента.
type Cli struct {
	io          iocli.IO
	interceptor *api.Interceptor
	session     *session.Store
	queue       *queue.Service
	records     storage.RecordStorage
	metadata    storage.MetadataStorage
	monitor     *netstatus.Monitor
	coordinator *sync.Coordinator
	proxy       *shellproxy.Proxy
	listenAddr  string
}

// Deps зависимости CLI.
type Deps struct {
	IO          iocli.IO
	Interceptor *api.Interceptor
	Session     *session.Store
	Queue       *queue.Service
	Records     storage.RecordStorage
	Metadata    storage.MetadataStorage
	Monitor     *netstatus.Monitor
	Coordinator *sync.Coordinator
	Proxy       *shellproxy.Proxy
	ListenAddr  string
}

// New creates a new CLI
func New(deps Deps) *Cli {
	return &Cli{
		io:          deps.IO,
		interceptor: deps.Interceptor,
		session:     deps.Session,
		queue:       deps.Queue,
		records:     deps.Records,
		metadata:    deps.Metadata,
		monitor:     deps.Monitor,
		coordinator: deps.Coordinator,
		proxy:       deps.Proxy,
		listenAddr:  deps.ListenAddr,
	}
}

// Run выполняет команду. Ошибки уходят в stderr, код возврата ненулевой.
func (c *Cli) Run(ctx context.Context, command string, args []string) {
	var err error
	switch command {
	case "login":
		err = c.runLogin(ctx)
	case "logout":
		err = c.runLogout(ctx)
	case "status":
		err = c.runStatus(ctx)
	case "sync":
		err = c.runSync(ctx)
	case "queue":
		err = c.runQueue(ctx, args)
	case "orders":
		err = c.runOrders(ctx, args)
	case "menu":
		err = c.runMenu(ctx)
	case "serve":
		err = c.runServe(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		PrintUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// PrintUsage печатает справку по командам
func PrintUsage() {
	fmt.Println(`Usage: possync [flags] <command> [args]

Commands:
  login           Authenticate against the backend and store the session
  logout          Clear the local session
  status          Show connectivity, session and queue state
  sync            Run a sync cycle now (fails fast when offline)
  queue           List pending and failed operations (-status=pending|failed)
  orders          List local order snapshots (-type=dine_in|takeaway|delivery)
  menu            List local menu snapshot
  serve           Run the sync coordinator and the local shell proxy

Flags:
  -server   Backend URL (default http://localhost:8080)
  -db       Path to the shared local database
  -listen   Listen address for serve (default 127.0.0.1:8787)
  -version  Show version information`)
}
