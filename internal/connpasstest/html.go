package connpasstest

import (
	"fmt"
	"html"
	"strings"
)

// ProfileURL returns the profile link connpass renders for a user ID.
func ProfileURL(id string) string {
	return "https://connpass.com/user/" + id + "/"
}

// Paging renders the paging control. An empty next renders the final page.
func Paging(next string) string {
	var b strings.Builder
	b.WriteString(`<div class="paging_area"><ul>`)
	b.WriteString(`<li class="active"><span>1</span></li>`)
	if next != "" {
		fmt.Fprintf(&b, `<li class="to_next"><a href="%s">次へ&gt;&gt;</a></li>`, html.EscapeString(next))
	}
	b.WriteString(`</ul></div>`)
	return b.String()
}

// Member is the data rendered into one member listing row.
type Member struct {
	ID    string
	Name  string
	Count string // e.g. "3 回"
	Last  string // e.g. "2020/01/01 (水)"
	Join  string // e.g. "2019/12/01"
}

// MemberRow renders one tr.GroupMemberProfile.
func MemberRow(m Member) string {
	return fmt.Sprintf(`<tr class="GroupMemberProfile">
<td class="name"><p class="GroupMemberDisplayName"><a href="%s">%s</a></p></td>
<td class="event">%s</td>
<td class="date">%s</td>
<td class="join_date">%s</td>
</tr>`, ProfileURL(m.ID), html.EscapeString(m.Name), m.Count, m.Last, m.Join)
}

// MemberListing renders a member listing page.
func MemberListing(members []Member, next string) string {
	var rows strings.Builder
	for _, m := range members {
		rows.WriteString(MemberRow(m))
	}
	return page(`<table class="GroupMemberList"><tbody>` + rows.String() + `</tbody></table>` + Paging(next))
}

// Event is the data rendered into one event listing block.
type Event struct {
	Deadline string // optional registration deadline shown before the date
	Date     string // e.g. "2020/01/01（水）19:00〜"
	Title    string
	URL      string
}

// EventBlock renders one div.group_event_inner.
func EventBlock(e Event) string {
	var schedule strings.Builder
	if e.Deadline != "" {
		fmt.Fprintf(&schedule, `<span class="label">締切</span> <span>%s</span><br>`, e.Deadline)
	}
	fmt.Fprintf(&schedule, `<span class="label">開催日時</span> <span class="date">%s</span>`, e.Date)

	return fmt.Sprintf(`<div class="group_event_inner">
<p class="schedule">%s</p>
<p class="event_title"><a href="%s">%s</a></p>
</div>`, schedule.String(), html.EscapeString(e.URL), html.EscapeString(e.Title))
}

// EventListing renders an event listing page.
func EventListing(events []Event, next string) string {
	var blocks strings.Builder
	for _, e := range events {
		blocks.WriteString(EventBlock(e))
	}
	return page(blocks.String() + Paging(next))
}

// ParticipantRow renders one participant row. An empty id renders a
// withdrawn user without a profile link.
func ParticipantRow(id string) string {
	name := `<p class="display_name">退会ユーザー</p>`
	if id != "" {
		name = fmt.Sprintf(`<p class="display_name"><a href="%s">%s</a></p>`, ProfileURL(id), id)
	}
	return `<tr><td class="user"><div class="user_info">` + name + `</div></td><td class="social"></td><td class="label_ptype_name">一般枠</td></tr>`
}

func participantTable(ids []string) string {
	var rows strings.Builder
	for _, id := range ids {
		rows.WriteString(ParticipantRow(id))
	}
	return `<table class="participants_table"><thead><tr><th>参加者</th></tr></thead><tbody>` + rows.String() + `</tbody></table>`
}

// Confirmed describes one confirmed-participant table.
type Confirmed struct {
	IDs         []string
	Empty       bool   // render the no-applicants sentinel
	EmptyText   string // sentinel text; "" is the Japanese default
	OverflowURL string // render a link to an overflow listing
}

// Participation describes a participation page.
type Participation struct {
	Cancelled  []string // nil omits the cancelled area
	Organizers []string
	Confirmed  []Confirmed
}

// ParticipationPage renders an event's participation page.
func ParticipationPage(p Participation) string {
	var b strings.Builder

	b.WriteString(`<div class="concerned_area">`)
	for _, id := range p.Organizers {
		b.WriteString(`<div class="user_info">`)
		if id == "" {
			b.WriteString(`<p class="display_name">退会ユーザー</p>`)
		} else {
			fmt.Fprintf(&b, `<p class="display_name"><a href="%s">%s</a></p>`, ProfileURL(id), id)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)

	for _, c := range p.Confirmed {
		b.WriteString(`<div class="participation_table_area">`)
		switch {
		case c.Empty:
			sentinel := c.EmptyText
			if sentinel == "" {
				sentinel = "イベント申込者はいません。"
			}
			fmt.Fprintf(&b, `<table class="participants_table"><tbody><tr><td colspan="3" class="empty">%s</td></tr></tbody></table>`, html.EscapeString(sentinel))
		case c.OverflowURL != "":
			var rows strings.Builder
			for _, id := range c.IDs {
				rows.WriteString(ParticipantRow(id))
			}
			fmt.Fprintf(&rows, `<tr><td colspan="3" class="more"><a href="%s">参加者一覧を見る</a></td></tr>`, html.EscapeString(c.OverflowURL))
			b.WriteString(`<table class="participants_table"><tbody>` + rows.String() + `</tbody></table>`)
		default:
			b.WriteString(participantTable(c.IDs))
		}
		b.WriteString(`</div>`)
	}

	if p.Cancelled != nil {
		b.WriteString(`<div class="cancelled_table_area">` + participantTable(p.Cancelled) + `</div>`)
	}

	return page(b.String())
}

// OverflowListing renders one page of an overflow participant listing.
func OverflowListing(ids []string, next string) string {
	return page(`<div class="participation_table_area">` + participantTable(ids) + `</div>` + Paging(next))
}

func page(body string) string {
	return `<!DOCTYPE html><html lang="ja"><head><meta charset="utf-8"><title>connpass</title></head><body>` + body + `</body></html>`
}
