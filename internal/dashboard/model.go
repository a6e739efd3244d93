package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"rebirth/internal/usecase"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	statusReady     = "배송중인 주문을 불러오는 중입니다."
	statusChanged   = "선택하신 주문의 배송상태가 변경되었습니다."
	statusNoneMsg   = "배송을 완료할 주문을 선택해 주세요."
	statusConfirm   = "선택하신 %d건의 주문을 배송완료로 변경하시겠습니까? (y/n)"
	statusCancelled = "변경을 취소했습니다."
)

const requestTimeout = 10 * time.Second

// 配送中の注文一覧と、配送完了への一括変更
type Model struct {
	api        API
	rows       []Row
	cursor     int
	selected   map[string]bool
	status     string
	busy       bool
	confirming bool
}

func NewModel(api API) Model {
	return Model{
		api:      api,
		selected: map[string]bool{},
		status:   statusReady,
		busy:     true,
	}
}

type ordersLoaded struct {
	orders []usecase.OrderOutput
	err    error
}

type statusUpdated struct {
	count int
	err   error
}

func (m Model) Init() tea.Cmd {
	return loadCmd(m.api)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case ordersLoaded:
		m.busy = false
		if msg.err != nil {
			m.status = fmt.Sprintf("주문 조회 중 오류 발생: %v", msg.err)
			return m, nil
		}
		m.setOrders(msg.orders)
		if m.status == statusReady {
			m.status = fmt.Sprintf("배송중 %d건", len(m.rows))
		}
	case statusUpdated:
		if msg.err != nil {
			m.busy = false
			m.status = fmt.Sprintf("배송상태 변경이 실패되었습니다.: %v", msg.err)
			return m, nil
		}
		m.selected = map[string]bool{}
		m.status = statusChanged
		return m, loadCmd(m.api)
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}

	if m.confirming {
		switch key {
		case "y", "enter":
			m.confirming = false
			m.busy = true
			return m, markCmd(m.api, m.SelectedIDs())
		case "n", "esc":
			m.confirming = false
			m.status = statusCancelled
		}
		return m, nil
	}
	if m.busy {
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case " ":
		if len(m.rows) > 0 {
			id := m.rows[m.cursor].ID
			if m.selected[id] {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
		}
	case "a":
		//全選択 / 全解除
		if len(m.selected) == len(m.rows) {
			m.selected = map[string]bool{}
		} else {
			for _, r := range m.rows {
				m.selected[r.ID] = true
			}
		}
	case "r":
		m.busy = true
		m.status = statusReady
		return m, loadCmd(m.api)
	case "enter":
		n := len(m.selected)
		if n == 0 {
			m.status = statusNoneMsg
			return m, nil
		}
		m.confirming = true
		m.status = fmt.Sprintf(statusConfirm, n)
	}
	return m, nil
}

// 再読込後も残っている注文の選択だけ保持する
func (m *Model) setOrders(orders []usecase.OrderOutput) {
	m.rows = make([]Row, 0, len(orders))
	alive := map[string]bool{}
	for _, o := range orders {
		m.rows = append(m.rows, BuildRow(o))
		if m.selected[o.ID] {
			alive[o.ID] = true
		}
	}
	m.selected = alive
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

// 画面の並び順で返す
func (m Model) SelectedIDs() []string {
	ids := make([]string, 0, len(m.selected))
	for _, r := range m.rows {
		if m.selected[r.ID] {
			ids = append(ids, r.ID)
		}
	}
	if len(ids) < len(m.selected) {
		var rest []string
		for id := range m.selected {
			if !contains(ids, id) {
				rest = append(rest, id)
			}
		}
		sort.Strings(rest)
		ids = append(ids, rest...)
	}
	return ids
}

func (m Model) Rows() []Row {
	return m.rows
}

func (m Model) Status() string {
	return m.status
}

func (m Model) View() string {
	b := &strings.Builder{}
	fmt.Fprintln(b, "배송 관리")
	fmt.Fprintln(b, "")

	if len(m.rows) == 0 {
		fmt.Fprintln(b, "  배송중인 주문이 없습니다.")
	}
	for i, r := range m.rows {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		check := "[ ]"
		if m.selected[r.ID] {
			check = "[x]"
		}
		fmt.Fprintf(b, " %s %s %s  %s  %s  %s  %d개  %d원\n",
			cursor, check, r.Date, r.ID, r.Addressee, r.Summary, r.Quantity, r.TotalPrice)
	}

	fmt.Fprintln(b, "")
	fmt.Fprintf(b, "Status: %s\n", m.status)
	fmt.Fprintln(b, "\nControls: up/down 이동, space 선택, a 전체선택, enter 배송완료, r 새로고침, q 종료")
	return b.String()
}

func loadCmd(api API) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		orders, err := api.ShippingOrders(ctx)
		return ordersLoaded{orders: orders, err: err}
	}
}

func markCmd(api API, ids []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := api.MarkDelivered(ctx, ids)
		return statusUpdated{count: len(ids), err: err}
	}
}

func contains(vs []string, v string) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
