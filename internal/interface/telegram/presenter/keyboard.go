package presenter

import (
	"fmt"
	"time"

	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/child"
	"github.com/lessonhub/lesson-ledger-bot/pkg/timeutil"
)

// Callback data prefixes. Flow states and the router match on these.
const (
	PrefixLessonChild  = "lesson_child_"
	PrefixPayChild     = "pay_select_"
	PrefixDate         = "date_"
	PrefixEndTime      = "endtime_"
	PrefixMark         = "mark_"
	PrefixUnmark       = "unmark_"
	PrefixCancelLesson = "cancel_"
	PrefixUncancel     = "uncancel_"
	PrefixEditChild    = "edit_child_"
	PrefixEditField    = "edit_field_"
	PrefixArchive      = "arch_"
	PrefixUnarchive    = "unarch_"
	PrefixDelete       = "del_"

	DataViewToday    = "view_today"
	DataViewTomorrow = "view_tomorrow"
	DataViewWeek     = "view_week"

	DataRepeatYes     = "repeat_yes"
	DataRepeatNo      = "repeat_no"
	DataConfirmRepeat = "repeat_confirm"
	DataSkipNote      = "note_skip"
	DataConfirmPay    = "pay_confirm"
	DataSettingsAdd   = "settings_add"
	DataSettingsEdit  = "settings_edit"
	DataSettingsArch  = "settings_archive"
	DataSettingsDel   = "settings_delete"
	DataSettingsList  = "settings_list"
)

// cancelRow is appended to every flow keyboard so the operator can back
// out from any step.
func cancelRow() []conversation.Button {
	return []conversation.Button{conversation.Btn(TextBtnCancel, conversation.CancelData)}
}

// ViewSwitchRow is the timetable range switcher under the timetable
// message.
func ViewSwitchRow() []conversation.Button {
	return []conversation.Button{
		conversation.Btn(TextBtnViewToday, DataViewToday),
		conversation.Btn(TextBtnViewTomorrow, DataViewTomorrow),
		conversation.Btn(TextBtnViewWeek, DataViewWeek),
	}
}

// ChildPicker builds a one-child-per-row keyboard with the given data
// prefix.
func ChildPicker(children []*child.Child, prefix string) *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	for _, c := range children {
		kb.Row(conversation.Btn(c.Name.String(), prefix+c.ID.String()))
	}
	kb.Row(cancelRow()...)
	return kb
}

// DatePicker offers today and the next two days, with manual input as
// the text alternative.
func DatePicker(now time.Time) *conversation.Keyboard {
	labels := [3]string{"Сьогодні", "Завтра", "Післязавтра"}
	dates := timeutil.QuickDates(now)

	kb := conversation.NewKeyboard()
	row := make([]conversation.Button, 0, 3)
	for i, iso := range dates {
		row = append(row, conversation.Btn(labels[i], PrefixDate+iso))
	}
	kb.Row(row...)
	kb.Row(cancelRow()...)
	return kb
}

// EndTimePicker offers the usual lesson lengths relative to the start
// time. Unparseable start times fall back to manual input only.
func EndTimePicker(start string) *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	row := make([]conversation.Button, 0, 2)
	for _, minutes := range [2]int{30, 55} {
		end, err := timeutil.AddMinutes(start, minutes)
		if err != nil {
			continue
		}
		row = append(row, conversation.Btn(fmt.Sprintf("+%d хв (%s)", minutes, end), PrefixEndTime+end))
	}
	if len(row) > 0 {
		kb.Row(row...)
	}
	kb.Row(cancelRow()...)
	return kb
}

// RepeatPicker asks whether to fan the lesson out weekly.
func RepeatPicker() *conversation.Keyboard {
	return conversation.NewKeyboard().
		Row(conversation.Btn(TextBtnRepeatYes, DataRepeatYes)).
		Row(conversation.Btn(TextBtnRepeatNo, DataRepeatNo))
}

// ConfirmRepeatKeyboard is the final confirmation of the weekly
// fan-out preview.
func ConfirmRepeatKeyboard() *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	kb.Row(conversation.Btn(TextBtnConfirmRepeat, DataConfirmRepeat))
	kb.Row(cancelRow()...)
	return kb
}

// NoteSkipKeyboard lets the operator skip the optional note.
func NoteSkipKeyboard() *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	kb.Row(conversation.Btn(TextBtnSkipNote, DataSkipNote))
	kb.Row(cancelRow()...)
	return kb
}

// ConfirmPaymentKeyboard is the final confirmation of the step-by-step
// payment wizard.
func ConfirmPaymentKeyboard() *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	kb.Row(conversation.Btn(TextBtnConfirmPayment, DataConfirmPay))
	kb.Row(cancelRow()...)
	return kb
}

// FieldPicker selects which child attribute to edit.
func FieldPicker() *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	kb.Row(
		conversation.Btn(TextBtnFieldName, PrefixEditField+"name"),
		conversation.Btn(TextBtnFieldAge, PrefixEditField+"age"),
		conversation.Btn(TextBtnFieldPrice, PrefixEditField+"price"),
	)
	kb.Row(cancelRow()...)
	return kb
}

// SettingsMenu is the /settings root keyboard.
func SettingsMenu() *conversation.Keyboard {
	return conversation.NewKeyboard().
		Row(conversation.Btn(TextBtnAddChild, DataSettingsAdd)).
		Row(conversation.Btn(TextBtnEditChild, DataSettingsEdit)).
		Row(conversation.Btn(TextBtnArchive, DataSettingsArch), conversation.Btn(TextBtnDeleteChild, DataSettingsDel)).
		Row(conversation.Btn(TextBtnListMembers, DataSettingsList))
}

// ArchiveToggleKeyboard lists every child with its archive toggle.
func ArchiveToggleKeyboard(active, archived []*child.Child) *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	for _, c := range active {
		kb.Row(conversation.Btn("📦 "+c.Name.String(), PrefixArchive+c.ID.String()))
	}
	for _, c := range archived {
		kb.Row(conversation.Btn("↩️ "+c.Name.String()+" (архів)", PrefixUnarchive+c.ID.String()))
	}
	return kb
}

// DeletePicker lists children for permanent deletion.
func DeletePicker(children []*child.Child) *conversation.Keyboard {
	kb := conversation.NewKeyboard()
	for _, c := range children {
		kb.Row(conversation.Btn("🗑 "+c.Name.String(), PrefixDelete+c.ID.String()))
	}
	return kb
}
