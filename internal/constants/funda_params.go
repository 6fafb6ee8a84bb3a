package constants

// Параметры funda, общие для всех адаптеров.
const (
	// FundaIndexURL - стартовая страница, с которой браузер получает сессионные куки.
	FundaIndexURL = "https://www.funda.nl/en"

	// SearchAPIHost - elasticsearch-фасад funda для поиска по объявлениям.
	SearchAPIHost = "https://listing-search-wonen.funda.io"

	// SearchAPIPath - msearch endpoint, принимает ndjson с шаблонными запросами.
	SearchAPIPath = "/_msearch/template"

	// PageSize - фиксированный размер страницы поиска. Offset всегда кратен ему.
	PageSize = 15

	// PaginationOffsetLimit - индекс не отдает результаты за этим окном.
	PaginationOffsetLimit = 10000

	// CaptchaMarker - текст интерстициальной страницы бот-защиты. Если он
	// встречается в теле ответа, IP считается заблокированным.
	CaptchaMarker = "Je bent bijna op de pagina die je zoekt"

	// PartialFailMarker - префикс описания для записей без обязательных полей.
	PartialFailMarker = "[PARTIAL_PARSE]"

	// TombstoneStatus - статус-заглушка для объявлений, которые не удалось распарсить.
	TombstoneStatus = "unparseable"
)

// RequiredCookies - имена кук, без которых funda не отдает детальные страницы.
var RequiredCookies = []string{
	".ASPXANONYMOUS",
	"sr",
	"SNLB",
	"didomi_consent",
	"didomi_token",
	"bm_sv",
}

// AvailableStatusPatterns - статусы, при которых объявление считается
// активным и остается в очереди переобхода.
var AvailableStatusPatterns = []string{"available", "under option", "negotiations"}
