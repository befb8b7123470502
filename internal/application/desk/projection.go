package desk

import (
	"errors"
	"fmt"
	"time"

	"library-desk/internal/domain/identifier"
	"library-desk/internal/domain/member"
)

// 画面に表示する文言
const (
	LoadingText        = "Loading..."
	ErrorPrefix        = "Error: "
	Heading            = "Books Issued to Member"
	ConfirmHeading     = "Return Book"
	ConfirmButtonLabel = "Confirm Return"
	CancelButtonLabel  = "Cancel"
	SuccessHeading     = "Book Return Successfully"
	SuccessBody        = "The book has been successfully returned."
	FailureHeading     = "Book return Failed"
	FailureBody        = "Book return failed."
	ResultButtonLabel  = "OK"
	DefaultCurrency    = "KES"
	DefaultDateLayout  = "1/2/2006"
)

// 画面の表示状態
const (
	StatusLoading = "loading"
	StatusError   = "error"
	StatusReady   = "ready"
)

// DisplayOptions 表示形式の設定
type DisplayOptions struct {
	CurrencyLabel string
	DateLayout    string
	Location      *time.Location
}

// NewDisplayOptions 空の項目を既定値で埋めたDisplayOptionsを作成
func NewDisplayOptions(currencyLabel, dateLayout string, loc *time.Location) DisplayOptions {
	if currencyLabel == "" {
		currencyLabel = DefaultCurrency
	}
	if dateLayout == "" {
		dateLayout = DefaultDateLayout
	}
	if loc == nil {
		loc = time.Local
	}
	return DisplayOptions{CurrencyLabel: currencyLabel, DateLayout: dateLayout, Location: loc}
}

// ViewModel 描画用に整形した画面
type ViewModel struct {
	ViewID       string            `json:"view_id"`
	MemberID     identifier.ID     `json:"member_id"`
	Phase        string            `json:"phase"`
	Status       string            `json:"status"`
	Message      string            `json:"message,omitempty"`
	Heading      string            `json:"heading,omitempty"`
	Rows         []RowView         `json:"rows,omitempty"`
	ConfirmModal *ConfirmModalView `json:"confirm_modal,omitempty"`
	ResultModal  *ResultModalView  `json:"result_modal,omitempty"`
}

// RowView 一覧の1行
type RowView struct {
	TransactionID string `json:"transaction_id"`
	Title         string `json:"title"`
	IssueDate     string `json:"issue_date"`
}

// ConfirmModalView 返却確認モーダル
type ConfirmModalView struct {
	Heading      string `json:"heading"`
	BookTitle    string `json:"book_title"`
	Question     string `json:"question"`
	Charge       string `json:"charge"`
	ConfirmLabel string `json:"confirm_label"`
	CancelLabel  string `json:"cancel_label"`
	Submitting   bool   `json:"submitting"`
}

// ResultModalView 返却結果モーダル
type ResultModalView struct {
	Success     bool   `json:"success"`
	Heading     string `json:"heading"`
	Body        string `json:"body"`
	ButtonLabel string `json:"button_label"`
}

// Project 画面の状態を描画用のViewModelに変換する
//
// どちらかのクエリが読み込み中なら読み込み表示だけ、失敗していればエラー表示だけを返す。
// エラーは貸出一覧の方を優先する。
func Project(s Snapshot, opts DisplayOptions) ViewModel {
	vm := ViewModel{
		ViewID:   s.ViewID,
		MemberID: s.MemberID,
		Phase:    s.Flow.Phase().String(),
	}

	if s.Books.Loading || s.Member.Loading {
		vm.Status = StatusLoading
		vm.Message = LoadingText
		return vm
	}

	if s.Books.Err != nil || s.Member.Err != nil {
		err := s.Books.Err
		if err == nil {
			err = s.Member.Err
		}
		vm.Status = StatusError
		vm.Message = ErrorPrefix + errorMessage(err)
		return vm
	}

	vm.Status = StatusReady
	vm.Heading = Heading
	vm.Rows = make([]RowView, 0, len(s.Books.Data))
	for _, i := range s.Books.Data {
		vm.Rows = append(vm.Rows, RowView{
			TransactionID: i.ID(),
			Title:         i.Book().Title(),
			IssueDate:     i.IssueDate().In(opts.Location).Format(opts.DateLayout),
		})
	}

	if s.Flow.ShowConfirmModal() {
		if selected := s.Flow.Selected(); selected != nil {
			var firstName, lastName string
			if m := selected.Member(); m != nil {
				firstName, lastName = m.FirstName(), m.LastName()
			}
			title := selected.Book().Title()
			fee := selected.Fee().StringFixed(member.BalanceScale)
			vm.ConfirmModal = &ConfirmModalView{
				Heading:      ConfirmHeading,
				BookTitle:    title,
				Question:     fmt.Sprintf("Are you sure you want to return the book: %s?", title),
				Charge:       fmt.Sprintf("%s %s will be charged %s %s", firstName, lastName, opts.CurrencyLabel, fee),
				ConfirmLabel: ConfirmButtonLabel,
				CancelLabel:  CancelButtonLabel,
				Submitting:   s.Flow.Submitting(),
			}
		}
	}

	if ok := s.Flow.ReturnSuccess(); ok != nil {
		vm.ResultModal = &ResultModalView{
			Success:     *ok,
			Heading:     FailureHeading,
			Body:        FailureBody,
			ButtonLabel: ResultButtonLabel,
		}
		if *ok {
			vm.ResultModal.Heading = SuccessHeading
			vm.ResultModal.Body = SuccessBody
		}
	}

	return vm
}

// errorMessage 画面に出すエラー文言。データソースが文言を持っていればそれを使う
func errorMessage(err error) string {
	var me MessageError
	if errors.As(err, &me) {
		return me.Message()
	}
	return err.Error()
}
