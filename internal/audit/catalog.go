package audit

// Technical rule codes.
const (
	CodeNoindexOnIndexable      = "noindex_on_indexable"
	CodeRedirectLoop            = "redirect_loop"
	CodeNotHTTPS                = "not_https"
	CodeCanonical404            = "canonical_404"
	CodeCanonicalToHomepage     = "canonical_to_homepage"
	CodeServerError5xx          = "server_error_5xx"
	CodeRedirectChainEnds404    = "redirect_chain_ends_404"
	CodeMixedContentJSCSS       = "mixed_content_js_css"
	CodeMetaRobotsConflict      = "meta_robots_conflict"
	CodeCanonicalDifferentURL   = "canonical_different_url"
	CodeRedirectChainTooLong    = "redirect_chain_too_long"
	CodeRedirect302             = "redirect_302"
	CodeNofollowDirective       = "nofollow_directive"
	CodeMissingStructuredData   = "missing_structured_data"
	CodeDuplicateStructuredData = "duplicate_structured_data"
)

// On-page rule codes.
const (
	CodeMissingTitle            = "missing_title"
	CodeTitleEmpty              = "title_empty"
	CodeMissingMetaDescription  = "missing_meta_description"
	CodeMetaDescriptionEmpty    = "meta_description_empty"
	CodeNoH1                    = "no_h1"
	CodeOrphanPage              = "orphan_page"
	CodeTitleTooShort           = "title_too_short"
	CodeTitleTooLong            = "title_too_long"
	CodeDuplicateTitle          = "duplicate_title"
	CodeMultipleH1              = "multiple_h1"
	CodeImagesMissingAlt        = "images_missing_alt"
	CodeBrokenInternalLinks     = "broken_internal_links"
	CodeMetaDescriptionTooShort = "meta_description_too_short"
	CodeMetaDescriptionTooLong  = "meta_description_too_long"
	CodeH1Other                 = "h1_other"
	CodeTitleTemplateDefault    = "title_template_default"
	CodeH1IdenticalToTitle      = "h1_identical_to_title"
	CodeImagesEmptyAlt          = "images_empty_alt"
	CodeDuplicateDescription    = "duplicate_description"
	CodeExcessiveInternalLinks  = "excessive_internal_links"
	CodeLinkWithoutAnchorText   = "link_without_anchor_text"
	CodeInternalLinksOther      = "internal_links_other"
)

// Reported-only codes. These appear in the report but carry no penalty.
const (
	CodeURLsContainUnderscore     = "urls_contain_underscore"
	CodeURLsContainUppercase      = "urls_contain_uppercase"
	CodeURLsTooLong               = "urls_too_long"
	CodeURLsTooDeep               = "urls_too_deep"
	CodeURLsSpecialCharacters     = "urls_special_characters"
	CodeMissingViewport           = "missing_viewport"
	CodeMissingCacheControl       = "missing_cache_control"
	CodeMissingContentCompression = "missing_content_compression"
	CodeMissingRobotsTxt          = "missing_robots_txt"
	CodeNoSitemapsFound           = "no_sitemaps_found"
	CodeMissingLLMsTxt            = "missing_llms_txt"
	CodeStatus404                 = "status_404"
)

// ruleInfo fixes a rule's severity, category, and penalty weight.
type ruleInfo struct {
	Severity Severity
	Category Category
	Weight   int
}

// catalog is the closed rule catalog. Codes, severities, and weights are
// fixed; Weight 0 marks reported-only rules.
var catalog = map[string]ruleInfo{
	// Technical
	CodeNoindexOnIndexable:      {SeverityCritical, CategoryTechnical, -15},
	CodeRedirectLoop:            {SeverityCritical, CategoryTechnical, -15},
	CodeNotHTTPS:                {SeverityCritical, CategoryTechnical, -15},
	CodeCanonical404:            {SeverityHigh, CategoryTechnical, -12},
	CodeCanonicalToHomepage:     {SeverityHigh, CategoryTechnical, -12},
	CodeServerError5xx:          {SeverityHigh, CategoryTechnical, -12},
	CodeRedirectChainEnds404:    {SeverityHigh, CategoryTechnical, -12},
	CodeMixedContentJSCSS:       {SeverityHigh, CategoryTechnical, -10},
	CodeMetaRobotsConflict:      {SeverityMedium, CategoryTechnical, -6},
	CodeCanonicalDifferentURL:   {SeverityMedium, CategoryTechnical, -6},
	CodeRedirectChainTooLong:    {SeverityMedium, CategoryTechnical, -6},
	CodeRedirect302:             {SeverityMedium, CategoryTechnical, -4},
	CodeNofollowDirective:       {SeverityLow, CategoryTechnical, -3},
	CodeMissingStructuredData:   {SeverityLow, CategoryTechnical, -2},
	CodeDuplicateStructuredData: {SeverityLow, CategoryTechnical, -2},

	// On-page
	CodeMissingTitle:            {SeverityHigh, CategoryOnPage, -8},
	CodeTitleEmpty:              {SeverityHigh, CategoryOnPage, -8},
	CodeMissingMetaDescription:  {SeverityHigh, CategoryOnPage, -6},
	CodeMetaDescriptionEmpty:    {SeverityHigh, CategoryOnPage, -6},
	CodeNoH1:                    {SeverityHigh, CategoryOnPage, -6},
	CodeOrphanPage:              {SeverityHigh, CategoryOnPage, -6},
	CodeTitleTooShort:           {SeverityMedium, CategoryOnPage, -4},
	CodeTitleTooLong:            {SeverityMedium, CategoryOnPage, -4},
	CodeDuplicateTitle:          {SeverityMedium, CategoryOnPage, -4},
	CodeMultipleH1:              {SeverityMedium, CategoryOnPage, -4},
	CodeImagesMissingAlt:        {SeverityMedium, CategoryOnPage, -4},
	CodeBrokenInternalLinks:     {SeverityMedium, CategoryOnPage, -4},
	CodeMetaDescriptionTooShort: {SeverityMedium, CategoryOnPage, -3},
	CodeMetaDescriptionTooLong:  {SeverityMedium, CategoryOnPage, -3},
	CodeH1Other:                 {SeverityMedium, CategoryOnPage, -3},
	CodeTitleTemplateDefault:    {SeverityLow, CategoryOnPage, -3},
	CodeH1IdenticalToTitle:      {SeverityLow, CategoryOnPage, -2},
	CodeImagesEmptyAlt:          {SeverityLow, CategoryOnPage, -2},
	CodeDuplicateDescription:    {SeverityLow, CategoryOnPage, -2},
	CodeExcessiveInternalLinks:  {SeverityLow, CategoryOnPage, -2},
	CodeLinkWithoutAnchorText:   {SeverityLow, CategoryOnPage, -2},
	CodeInternalLinksOther:      {SeverityLow, CategoryOnPage, -2},

	// Reported-only
	CodeURLsContainUnderscore:     {SeverityLow, CategoryTechnical, 0},
	CodeURLsContainUppercase:      {SeverityLow, CategoryTechnical, 0},
	CodeURLsTooLong:               {SeverityLow, CategoryTechnical, 0},
	CodeURLsTooDeep:               {SeverityLow, CategoryTechnical, 0},
	CodeURLsSpecialCharacters:     {SeverityLow, CategoryTechnical, 0},
	CodeMissingViewport:           {SeverityHigh, CategoryTechnical, 0},
	CodeMissingCacheControl:       {SeverityMedium, CategoryTechnical, 0},
	CodeMissingContentCompression: {SeverityMedium, CategoryTechnical, 0},
	CodeMissingRobotsTxt:          {SeverityCritical, CategoryTechnical, 0},
	CodeNoSitemapsFound:           {SeverityCritical, CategoryTechnical, 0},
	CodeMissingLLMsTxt:            {SeverityHigh, CategoryTechnical, 0},
	CodeStatus404:                 {SeverityHigh, CategoryTechnical, 0},
}

// Caps on per-image issues.
const (
	maxMissingAltIssues = 3
	maxEmptyAltIssues   = 2
)

// KnownCode reports whether a code belongs to the catalog.
func KnownCode(code string) bool {
	_, ok := catalog[code]
	return ok
}

// IsScored reports whether a code carries a penalty weight.
func IsScored(code string) bool {
	return catalog[code].Weight != 0
}
