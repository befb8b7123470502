package identifier

import (
	"strconv"
	"strings"
	"unicode"
)

// ID 画面やAPIの文字列パラメータから取り出した整数ID
//
// 数値として解釈できなかった値も「無効なID」として保持し、呼び出し側でそのまま下流へ渡せるようにする。
// 無効なIDはJSONではnull、文字列表現では "NaN" になる。
type ID struct {
	value int64
	valid bool
}

// Invalid 無効なIDを返す
func Invalid() ID {
	return ID{}
}

// FromInt64 整数値からIDを作成
func FromInt64(v int64) ID {
	return ID{value: v, valid: true}
}

// Parse 文字列を整数IDに変換する
//
// 先頭の空白を読み飛ばし、符号と連続する10進数字だけを解釈する。"12abc" は 12、"abc" は無効になる。
// int64に収まらない桁数の場合も無効とする。JavaScriptのparseIntなら精度の落ちた数値になるが、
// GraphQLのInt（32bit）にも収まらず、どのデータソースでも無効なIDと同じく拒否される。
func Parse(raw string) ID {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return Invalid()
	}

	v, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return Invalid()
	}
	return FromInt64(v)
}

// Int64 整数値と有効かどうかを返す
func (id ID) Int64() (int64, bool) {
	return id.value, id.valid
}

// Valid 有効なIDかどうか
func (id ID) Valid() bool {
	return id.valid
}

// String 文字列表現を返す
func (id ID) String() string {
	if !id.valid {
		return "NaN"
	}
	return strconv.FormatInt(id.value, 10)
}

// MarshalJSON JSON表現を返す（無効なIDはnull）
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(id.value, 10)), nil
}

// UnmarshalJSON JSONの数値・文字列・nullからIDを復元する
func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*id = Invalid()
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*id = Parse(s)
	return nil
}
