package validator

import (
	"fmt"
	"strings"
	"time"
)

const (
	IDCardType15 = "15位身份证"
	IDCardType18 = "18位身份证"

	GenderMale   = "男"
	GenderFemale = "女"
)

type IDCardInfo struct {
	Type      string `json:"type"`
	Province  string `json:"province"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
}

var provinces = map[string]string{
	"11": "北京", "12": "天津", "13": "河北", "14": "山西", "15": "内蒙古",
	"21": "辽宁", "22": "吉林", "23": "黑龙江",
	"31": "上海", "32": "江苏", "33": "浙江", "34": "安徽", "35": "福建", "36": "江西", "37": "山东",
	"41": "河南", "42": "湖北", "43": "湖南", "44": "广东", "45": "广西", "46": "海南",
	"50": "重庆", "51": "四川", "52": "贵州", "53": "云南", "54": "西藏",
	"61": "陕西", "62": "甘肃", "63": "青海", "64": "宁夏", "65": "新疆",
	"71": "台湾", "81": "香港", "82": "澳门",
}

var (
	idWeights    = [17]int{7, 9, 10, 5, 8, 4, 2, 1, 6, 3, 7, 9, 10, 5, 8, 4, 2}
	idCheckCodes = [11]byte{'1', '0', 'X', '9', '8', '7', '6', '5', '4', '3', '2'}
)

// now is swapped in tests that pin the current year.
var now = time.Now

// ProvinceName resolves a two-digit administrative prefix.
func ProvinceName(code string) (string, bool) {
	name, found := provinces[code]
	return name, found
}

// IDCard validates a mainland resident ID number of 15 or 18 characters.
func IDCard(candidate string) Result {
	s := strings.ToUpper(strings.TrimSpace(foldDigits(candidate)))
	switch len(s) {
	case 0:
		return reject(ReasonEmpty)
	case 15:
		return idCard15(s)
	case 18:
		return idCard18(s)
	default:
		return reject(ReasonLength)
	}
}

func idCard15(s string) Result {
	if !allDigits(s) {
		return reject(ReasonFormat)
	}
	province, found := provinces[s[:2]]
	if !found {
		return reject(ReasonProvince)
	}
	birth, valid := birthDate("19"+s[6:8], s[8:10], s[10:12])
	if !valid {
		return reject(ReasonDate)
	}

	r := ok(s)
	r.IDCard = &IDCardInfo{
		Type:      IDCardType15,
		Province:  province,
		BirthDate: birth,
		Gender:    genderOf(s[14]),
	}
	return r
}

func idCard18(s string) Result {
	body, check := s[:17], s[17]
	if !allDigits(body) || !(check == 'X' || (check >= '0' && check <= '9')) {
		return reject(ReasonFormat)
	}
	province, found := provinces[s[:2]]
	if !found {
		return reject(ReasonProvince)
	}
	birth, valid := birthDate(s[6:10], s[10:12], s[12:14])
	if !valid {
		return reject(ReasonDate)
	}
	if IDCheckCode(body) != check {
		return reject(ReasonChecksum)
	}

	r := ok(s)
	r.IDCard = &IDCardInfo{
		Type:      IDCardType18,
		Province:  province,
		BirthDate: birth,
		Gender:    genderOf(s[16]),
	}
	return r
}

// IDCheckCode computes the ISO 7064 MOD 11-2 check character for the first
// 17 digits of an 18-character ID. It returns 0 when body is malformed.
func IDCheckCode(body string) byte {
	if len(body) != 17 || !allDigits(body) {
		return 0
	}
	sum := 0
	for i := 0; i < 17; i++ {
		sum += int(body[i]-'0') * idWeights[i]
	}
	return idCheckCodes[sum%11]
}

func birthDate(y, m, d string) (string, bool) {
	var year, month, day int
	if _, err := fmt.Sscanf(y+" "+m+" "+d, "%d %d %d", &year, &month, &day); err != nil {
		return "", false
	}
	if year < 1900 || year > now().Year() || month < 1 || month > 12 || day < 1 {
		return "", false
	}
	if day > daysIn(year, time.Month(month)) {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func genderOf(digit byte) string {
	if (digit-'0')%2 == 0 {
		return GenderFemale
	}
	return GenderMale
}

// MaskIDCard hides the birth date and sequence digits of a valid ID number,
// keeping the first 6 and the last 3 (15-digit) or 4 (18-digit) characters.
// Anything else is returned unchanged.
func MaskIDCard(value string) string {
	res := IDCard(value)
	if !res.Valid {
		return value
	}
	s := res.Normalized
	if len(s) == 15 {
		return s[:6] + strings.Repeat("*", 6) + s[12:]
	}
	return s[:6] + strings.Repeat("*", 8) + s[14:]
}
