package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/plastinin/jobwatch/internal/domain"
)

var iconGlyphs = map[domain.Icon]string{
	domain.IconClock:    "[..]",
	domain.IconSpinner:  "[>>]",
	domain.IconCheck:    "[ok]",
	domain.IconCross:    "[!!]",
	domain.IconStop:     "[--]",
	domain.IconQuestion: "[??]",
}

// terminalPresenter печатает строку статуса на каждое изменение
type terminalPresenter struct {
	w        io.Writer
	last     string
	done     chan struct{}
	stopOnce sync.Once
}

func newTerminalPresenter(w io.Writer) *terminalPresenter {
	return &terminalPresenter{w: w, done: make(chan struct{})}
}

func (p *terminalPresenter) OnStatusUpdate(v domain.DisplayStatus) {
	line := formatStatus(v)
	if line == p.last {
		return
	}
	p.last = line
	_, _ = fmt.Fprintln(p.w, line)
}

func (p *terminalPresenter) OnPollError(err error) {
	_, _ = fmt.Fprintf(p.w, "[!!] %s, retrying\n", domain.UserMessage(err))
	p.last = ""
}

func (p *terminalPresenter) OnStop() {
	p.stopOnce.Do(func() { close(p.done) })
}

// Done закрывается, когда опрос остановлен
func (p *terminalPresenter) Done() <-chan struct{} {
	return p.done
}

// formatStatus строка вида "[>>] Processing 40% | stage: apply | applied: 4/10"
func formatStatus(v domain.DisplayStatus) string {
	var b strings.Builder

	glyph, ok := iconGlyphs[v.Icon]
	if !ok {
		glyph = iconGlyphs[domain.IconQuestion]
	}
	fmt.Fprintf(&b, "%s %s %d%%", glyph, v.Text, v.Percent)

	if v.Stage != "" {
		fmt.Fprintf(&b, " | stage: %s", v.Stage)
	}
	if v.Applied != nil {
		if v.Total != nil {
			fmt.Fprintf(&b, " | applied: %d/%d", *v.Applied, *v.Total)
		} else {
			fmt.Fprintf(&b, " | applied: %d", *v.Applied)
		}
	}
	if v.Message != "" {
		fmt.Fprintf(&b, " | %s", v.Message)
	}
	return b.String()
}
