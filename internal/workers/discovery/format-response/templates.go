// internal/workers/discovery/format-response/templates.go
package formatresponse

import (
	"strings"
	"text/template"
)

const (
	tmplProductList      = "product_list"
	tmplSingleProduct    = "single_product"
	tmplPriceList        = "price_list"
	tmplCategory         = "category"
	tmplBusinessList     = "business_list"
	tmplNoResultRelaxed  = "no_result_relaxed"
	tmplNoResult         = "no_result"
	tmplHelp             = "help"
	tmplStoreUnavailable = "store_unavailable"
	tmplTruncated        = "truncated"
)

const replyTemplates = `
{{define "entry"}}{{.Index}}. {{if .HasProduct}}{{.Name}} - {{.Price}}/{{.Unit}}
{{.Business}}, {{.Locality}}{{else}}{{.Business}} - {{.Address}}{{end}}
Phone: {{.Phone}}{{end}}

{{define "product_list"}}Found {{.Count}} products:
{{range .Lines}}
{{template "entry" .}}
{{end}}{{end}}

{{define "single_product"}}{{with index .Lines 0}}Found 1 product:
{{.Name}} - {{.Price}}/{{.Unit}}
Available at: {{.Business}}, {{.Locality}}
Call: {{.Phone}}{{end}}{{end}}

{{define "price_list"}}Found {{.Count}} {{plural .Count "product" "products"}} {{.Bound}}:
{{range .Lines}}
{{template "entry" .}}
{{end}}{{end}}

{{define "category"}}Found {{.Count}} {{plural .Count "product" "products"}} in {{lower .Category}}:
{{range .Lines}}
{{template "entry" .}}
{{end}}{{end}}

{{define "business_list"}}Found {{.Count}} {{if .Category}}{{lower .Category}} {{end}}{{plural .Count "store" "stores"}}:
{{range .Lines}}
{{.Index}}. {{.Business}} - {{.Address}}
{{- if .HasProduct}}
{{.Name}} - {{.Price}}/{{.Unit}}
{{- end}}
Phone: {{.Phone}}
{{end}}{{end}}

{{define "no_result_relaxed"}}No matches {{.Dropped}}, but here's what's available:
{{range .Lines}}
{{template "entry" .}}
{{end}}{{end}}

{{define "no_result"}}Sorry, I couldn't find {{.Subject}}{{if .Bound}} {{.Bound}}{{end}}.
Would you like to see all available {{if .Category}}{{lower .Category}}{{else}}products{{end}}?{{end}}

{{define "help"}}I can help you find grocery and vegetable products and the stores that sell them. Try: "Show me rice under 150" or "Grocery stores near me".{{end}}

{{define "store_unavailable"}}Sorry, I'm having trouble reaching the product catalog right now. Please try again in a moment.{{end}}

{{define "truncated"}}Showing the first {{.Shown}} results. Say "show more" to see the rest.{{end}}
`

var templateFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

func parseTemplates() *template.Template {
	return template.Must(template.New("reply").Funcs(templateFuncs).Parse(replyTemplates))
}
