package watchcmder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/replyscope/replyscope/pkg/client"
	"github.com/replyscope/replyscope/pkg/cliui"
	"github.com/replyscope/replyscope/pkg/utils"
)

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	watchMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	watchLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	watchValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

const barWidth = 40

type watchKeyMap struct {
	Quit key.Binding
}

func (k watchKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

func (k watchKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

func defaultKeyMap() watchKeyMap {
	return watchKeyMap{
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "stop watching")),
	}
}

// pollFunc fetches the current progress of the watched task.
type pollFunc func(ctx context.Context) (*client.Progress, error)

type progressMsg struct {
	progress *client.Progress
	err      error
}

type pollTickMsg time.Time

type watchModel struct {
	ctx      context.Context
	taskID   string
	poll     pollFunc
	interval time.Duration

	latest  *client.Progress
	err     error
	stopped bool
	done    bool

	spinner spinner.Model
	bar     progress.Model
	keys    watchKeyMap
	help    help.Model
}

func newWatchModel(ctx context.Context, taskID string, poll pollFunc, interval time.Duration) watchModel {
	return watchModel{
		ctx:      ctx,
		taskID:   taskID,
		poll:     poll,
		interval: interval,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("82"))),
		),
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		keys: defaultKeyMap(),
		help: help.New(),
	}
}

func (m watchModel) Init() bubbletea.Cmd {
	return bubbletea.Batch(m.spinner.Tick, m.pollCmd())
}

func (m watchModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.stopped = true
			return m, bubbletea.Quit
		}
		return m, nil

	case progressMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, bubbletea.Quit
		}
		m.latest = msg.progress
		if m.latest.Finished() {
			m.done = true
			return m, bubbletea.Quit
		}
		return m, bubbletea.Tick(m.interval, func(t time.Time) bubbletea.Msg {
			return pollTickMsg(t)
		})

	case pollTickMsg:
		return m, m.pollCmd()

	case spinner.TickMsg:
		var cmd bubbletea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder

	title := m.taskID
	if m.latest != nil && m.latest.VideoTitle != "" {
		title = utils.Truncate(m.latest.VideoTitle, 48)
	}

	if m.done || m.err != nil {
		fmt.Fprintf(&b, "\n  %s %s\n", cliui.Mark(m.failure()), watchTitleStyle.Render(title))
	} else {
		fmt.Fprintf(&b, "\n  %s %s\n", m.spinner.View(), watchTitleStyle.Render(title))
	}

	if m.latest == nil {
		fmt.Fprintf(&b, "\n  %s\n", watchMutedStyle.Render("waiting for progress..."))
	} else {
		p := m.latest.Progress
		fmt.Fprintf(&b, "\n  %s\n\n", m.bar.ViewAs(p.Fraction()))
		fmt.Fprintf(&b, "  %s %s   %s %s   %s %s\n",
			watchLabelStyle.Render("Page"), watchValueStyle.Render(fmt.Sprintf("%d/%d", p.CurrentPage, p.PageLimit)),
			watchLabelStyle.Render("Comments"), watchValueStyle.Render(fmt.Sprintf("%d", p.TotalComments)),
			watchLabelStyle.Render("Elapsed"), watchValueStyle.Render(fmt.Sprintf("%ds", m.latest.ElapsedSeconds)),
		)
	}

	if err := m.failure(); err != nil {
		fmt.Fprintf(&b, "\n  %s\n", cliui.WarnStyle.Render(err.Error()))
	}

	if !m.done && m.err == nil {
		fmt.Fprintf(&b, "\n  %s\n", watchMutedStyle.Render(m.help.View(m.keys)))
	}

	return b.String()
}

// failure reports a polling error or a failed task.
func (m watchModel) failure() error {
	if m.err != nil {
		return m.err
	}
	if m.latest != nil && m.latest.Status == client.StatusFailed {
		return &client.TaskFailedError{TaskID: m.taskID, Message: m.latest.Error}
	}
	return nil
}

func (m watchModel) pollCmd() bubbletea.Cmd {
	return func() bubbletea.Msg {
		p, err := m.poll(m.ctx)
		return progressMsg{progress: p, err: err}
	}
}

func runWatchTUI(ctx context.Context, taskID string, poll pollFunc, interval time.Duration) (*client.Progress, bool, error) {
	program := bubbletea.NewProgram(
		newWatchModel(ctx, taskID, poll, interval),
		bubbletea.WithContext(ctx),
	)

	final, err := program.Run()
	if err != nil {
		return nil, false, err
	}

	m, ok := final.(watchModel)
	if !ok {
		return nil, false, fmt.Errorf("unexpected model type %T", final)
	}

	return m.latest, m.stopped, m.failure()
}
