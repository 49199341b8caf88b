package patterns

import (
	"strings"

	"github.com/rafabd1/LeakHound/core/category"
)

// tldAlternation lists the suffixes the builtin domain rule recognises.
var tldAlternation = strings.Join([]string{
	"xin", "com", "cn", "net", "com\\.cn", "vip", "top", "cc", "shop", "club", "wang", "xyz",
	"luxe", "site", "news", "pub", "fun", "online", "win", "red", "loan", "ren", "mom",
	"net\\.cn", "org", "link", "biz", "bid", "help", "tech", "date", "mobi", "so", "me", "tv",
	"co", "vc", "pw", "video", "party", "pics", "website", "store", "ltd", "ink", "trade",
	"live", "wiki", "space", "gift", "lol", "work", "band", "info", "click", "photo", "market",
	"tel", "social", "press", "game", "kim", "org\\.cn", "games", "pro", "men", "love",
	"studio", "rocks", "asia", "group", "science", "design", "software", "engineer", "lawyer",
	"fit", "beer", "tw", "io", "dev", "app", "ai", "cloud", "我爱你", "公司", "在线", "网址",
	"网店", "集团", "中文网",
}, "|")

// keyValue is the shared assignment tail of the credential rules:
// optional quote, spaces, '=' or ':', optional quote, value.
const keyValue = `["']?[^\S\r\n]*[=:][^\S\r\n]*["']?[\w-]+["']?`

var credentialKeys = []string{
	`github[_-]?token`,
	`github[_-]?oauth[_-]?token`,
	`github[_-]?api[_-]?token`,
	`github[_-]?access[_-]?token`,
	`github[_-]?client[_-]?secret`,
	`aws[_-]?access[_-]?key[_-]?id`,
	`aws[_-]?secret[_-]?access[_-]?key`,
	`aws[_-]?key`,
	`awssecretkey`,
	`google[_-]?api[_-]?key`,
	`google[_-]?client[_-]?secret`,
	`google[_-]?maps[_-]?api[_-]?key`,
	`[\w_-]*?password[\w_-]*?`,
	`[\w_-]*?token[\w_-]*?`,
	`[\w_-]*?secret[\w_-]*?`,
	`[\w_-]*?accesskey[\w_-]*?`,
	`[\w_-]*?bucket[\w_-]*?`,
	`huawei\.oss\.(?:ak|sk|bucket\.name|endpoint|local\.path)`,
	`stripe[_-]?(?:secret|private|publishable)[-_]?key`,
	`slack[_-]?token`,
	`twilio[_-]?(?:token|sid|api[_-]?key|api[_-]?secret)`,
	`firebase[_-]?(?:token|key|api[_-]?token)`,
	`mailgun[_-]?(?:api[_-]?key|secret[_-]?api[_-]?key)`,
	`docker[_-]?(?:token|password|key|hub[_-]?password)`,
	`npm[_-]?(?:token|api[_-]?key|auth[_-]?token|password)`,
}

func credentialsSource() string {
	alts := make([]string, 0, len(credentialKeys)+1)
	for _, k := range credentialKeys {
		alts = append(alts, k+keyValue)
	}
	alts = append(alts, `-{5}BEGIN[\s\S]*?-{5}END[\s\S]*?-{5}`)
	return strings.Join(alts, "|")
}

// builtinSources holds the default pattern text per category.
var builtinSources = map[category.Category]string{
	category.AbsoluteAPIs: `(?<![\w/\\.-])(?:/[\w.-]+(?:/[\w.-]+)+|/[\w.-]+\.\w+|[a-zA-Z]:[/\\][\w\s.-]+(?:[/\\][\w\s.-]+)+|\\\\[\w.-]+(?:[/\\][\w.-]+)+)(?![\w/\\])`,
	category.RelativeAPIs: `(?<![\w/\\-])(?:\.{1,2}/)+(?:[^/ \t\r\n<>|"']+/)*[^/ \t\r\n<>|"']*(?![\w/\\])`,
	category.Domains:      `(?<!\w)(?:[a-zA-Z0-9-]{2,}\.)+(?:` + tldAlternation + `)(?=\b|(?::\d{1,5})?(?:/|$))(?![.\w])`,
	category.Emails:       `([a-zA-Z0-9._\-]*@[a-zA-Z0-9._\-]{1,63}\.((?!js|css|jpg|jpeg|png|ico)[a-zA-Z]{2,}))`,
	category.PhoneNumbers: `(?<!\d)1(?:3\d{2}|4[14-9]\d|5\d{2}|66\d|7[2-35-8]\d|8\d{2}|9[89]\d)\d{7}(?!\d)|(?<![\w+])\+(?!86)[1-9]\d{0,2}[ -]?\d{2,4}(?:[ -]?\d{2,4}){1,3}(?!\d)`,
	category.Credentials:  credentialsSource(),
	category.IPAddresses:  `['"]((?:[a-zA-Z0-9]+:)?(?://)?\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}(?::\d{1,5})?(?:/[^'"]*?)?)['"]`,
	category.Paths:        `['"]((?:\.{0,2}/)?(?:[\w-]+/)+[\w-]+(?:\.[a-zA-Z0-9]{1,8})?)['"]`,
	category.JWTs:         `['"]?(ey[A-Za-z0-9_/+-]{10,}\.[A-Za-z0-9._/+-]{10,})['"]?`,
	category.GithubURLs:   `https?://github\.com/[a-zA-Z0-9_\-.]+/[a-zA-Z0-9_\-.]+`,
	category.VueFiles:     `["']([^"'\s]*\.vue)["']`,
	category.Companies: strings.Join([]string{
		`(?:[\u4e00-\u9fa5（）]{4,15}(?:公司|中心))`,
		`(?:[\u4e00-\u9fa5]{2,15}(?:软件|科技|集团))`,
		`[A-Z][a-zA-Z\s]{2,30}(?:Inc|Corp|LLC|Ltd|Company|Group|Technology|Systems)`,
	}, "|"),
	category.Comments: strings.Join([]string{
		`<!--[\s\S]*?-->`,
		`/\*[\s\S]*?\*/`,
		`(?:^|[^\w"':=/\\])//(?![=*<])([^\r\n<]*?)(?=<|$)`,
	}, "|"),
	category.IDCards:       `(?<![0-9A-Za-z])(\d{17}[\dXx]|\d{15})(?![0-9A-Za-z])`,
	category.BearerTokens:  `[Bb]earer\s+[a-zA-Z0-9\-=._+/\\]{20,500}`,
	category.BasicAuth:     `[Bb]asic\s+[A-Za-z0-9+/]{18,}={0,2}`,
	category.AuthHeaders:   `["'\[]*[Aa]uthorization["'\]]*\s*[:=]\s*['"]?\b(?:[Tt]oken\s+)?[a-zA-Z0-9\-_+/]{20,500}['"]?`,
	category.WechatAppIDs:  `['"](wx[a-z0-9]{15,18})['"]|['"](ww[a-z0-9]{15,18})['"]`,
	category.AWSKeys:       `AKIA[A-Z0-9]{16}|LTAI[A-Za-z\d]{12,30}|AKID[A-Za-z\d]{13,40}`,
	category.GoogleAPIKeys: `AIza[0-9A-Za-z_\-]{35}`,
	category.GithubTokens:  `((?:ghp|gho|ghu|ghs|ghr|github_pat)_[a-zA-Z0-9_]{36,255})`,
	category.GitlabTokens:  `glpat-[a-zA-Z0-9\-=_]{20,22}`,
	category.WebhookURLs: strings.Join([]string{
		`https://qyapi\.weixin\.qq\.com/cgi-bin/webhook/send\?key=[a-zA-Z0-9\-]{25,50}`,
		`https://oapi\.dingtalk\.com/robot/send\?access_token=[a-z0-9]{50,80}`,
		`https://open\.feishu\.cn/open-apis/bot/v2/hook/[a-z0-9\-]{25,50}`,
		`https://hooks\.slack\.com/services/[a-zA-Z0-9\-_]{6,12}/[a-zA-Z0-9\-_]{6,12}/[a-zA-Z0-9\-_]{15,24}`,
	}, "|"),
	category.CryptoUsage: `\b(?:CryptoJS\.(?:AES|DES)|Base64\.(?:encode|decode)|btoa|atob|JSEncrypt|rsa|KJUR|\$\.md5|md5|sha1|sha256|sha512)(?:\.\w+)*\s*\([^)]*\)`,

	category.SensitiveKeywords: `["']?\b([\w-]*(?:secret|passw(?:or)?d|private[_-]?key|access[_-]?key|api[_-]?key|app[_-]?key|client[_-]?secret)[\w-]*)["']?\s*[:=]`,

	category.JSFiles:  `<script[^>]*\ssrc\s*=\s*["'\x60]([^"'\x60]*\.js(?:\?[^"'\x60]*)?)["'\x60][^>]*>|(?:src|href)\s*=\s*["'\x60]([^"'\x60]*\.js(?:\?[^"'\x60]*)?)["'\x60]|import\s+.*?from\s+["'\x60]([^"'\x60]*\.js)["'\x60]|require\s*\(\s*["'\x60]([^"'\x60]*\.js)["'\x60]\s*\)`,
	category.CSSFiles: `(?:href)\s*=\s*["'\x60]([^"'\x60]*\.css(?:\?[^"'\x60]*)?)["'\x60]`,
	category.Images:   `(?:src|href|data-src)\s*=\s*["'\x60]([^"'\x60]*\.(?:jpg|jpeg|png|gif|bmp|svg|webp|ico|tiff)(?:\?[^"'\x60]*)?)["'\x60]`,
	category.URLs:     `(https?://[a-zA-Z0-9\-.]+(?::[0-9]+)?(?:/[^\s"'<>]*)?)`,
}

var builtinFlags = map[category.Category]string{
	category.Credentials: "gi",
	category.CryptoUsage: "gi",
	category.Comments:    "gm",

	category.SensitiveKeywords: "gi",
	category.JSFiles:           "gi",
	category.CSSFiles:          "gi",
	category.Images:            "gi",
}

// Length bounds applied to extracted values, by category.
var builtinBounds = map[category.Category][2]int{
	category.AbsoluteAPIs:      {1, 200},
	category.RelativeAPIs:      {1, 200},
	category.Domains:           {4, 253},
	category.Emails:            {3, 100},
	category.PhoneNumbers:      {7, 24},
	category.Credentials:       {4, 500},
	category.IPAddresses:       {7, 200},
	category.Paths:             {2, 200},
	category.JWTs:              {20, 4096},
	category.GithubURLs:        {19, 300},
	category.VueFiles:          {5, 200},
	category.Companies:         {4, 100},
	category.Comments:          {3, 1000},
	category.IDCards:           {15, 18},
	category.BearerTokens:      {27, 520},
	category.BasicAuth:         {24, 600},
	category.AuthHeaders:       {20, 600},
	category.WechatAppIDs:      {17, 20},
	category.AWSKeys:           {16, 44},
	category.GoogleAPIKeys:     {39, 39},
	category.GithubTokens:      {40, 266},
	category.GitlabTokens:      {26, 28},
	category.WebhookURLs:       {30, 300},
	category.CryptoUsage:       {5, 300},
	category.SensitiveKeywords: {3, 500},
	category.JSFiles:           {4, 500},
	category.CSSFiles:          {5, 500},
	category.Images:            {5, 500},
	category.URLs:              {10, 2048},
}

var builtinNames = map[category.Category]string{
	category.AbsoluteAPIs:      "Absolute API path",
	category.RelativeAPIs:      "Relative API path",
	category.Domains:           "Domain",
	category.Emails:            "Email address",
	category.PhoneNumbers:      "Phone number",
	category.Credentials:       "Credential assignment",
	category.IPAddresses:       "IP address",
	category.Paths:             "Path",
	category.JWTs:              "JWT",
	category.GithubURLs:        "GitHub repository URL",
	category.VueFiles:          "Vue component",
	category.Companies:         "Company name",
	category.Comments:          "Source comment",
	category.IDCards:           "CN resident ID",
	category.BearerTokens:      "Bearer token",
	category.BasicAuth:         "Basic auth header",
	category.AuthHeaders:       "Authorization header",
	category.WechatAppIDs:      "WeChat app id",
	category.AWSKeys:           "Cloud access key",
	category.GoogleAPIKeys:     "Google API key",
	category.GithubTokens:      "GitHub token",
	category.GitlabTokens:      "GitLab token",
	category.WebhookURLs:       "Chat bot webhook",
	category.CryptoUsage:       "Crypto primitive call",
	category.SensitiveKeywords: "Sensitive keyword",
	category.JSFiles:           "Script reference",
	category.CSSFiles:          "Stylesheet reference",
	category.Images:            "Image reference",
	category.URLs:              "URL",
}

// Custom rules get these bounds unless configured otherwise.
const (
	CustomMinLength = 1
	CustomMaxLength = 500
)

// DefaultRules returns the builtin rule set, one enabled rule per builtin
// category, in category order.
func DefaultRules() []Rule {
	rules := make([]Rule, 0, category.Count)
	for _, c := range category.All() {
		bounds := builtinBounds[c]
		rules = append(rules, Rule{
			Category:  c.Key(),
			Name:      builtinNames[c],
			Source:    builtinSources[c],
			Flags:     NormalizeFlags(builtinFlags[c]),
			Enabled:   true,
			Origin:    OriginBuiltin,
			MinLength: bounds[0],
			MaxLength: bounds[1],
		})
	}
	return rules
}
