package extract

import "github.com/PuerkitoBio/goquery"

// NextLink returns the href of the listing's "next page" control: the link in
// the last item of the paging list. ok is false on the final page.
func NextLink(page *goquery.Selection) (href string, ok bool, err error) {
	list, err := required(page.Find("div.paging_area ul").First(), "paging list")
	if err != nil {
		return "", false, err
	}
	last, err := required(list.Find("li").Last(), "paging item")
	if err != nil {
		return "", false, err
	}

	link := last.Find("a").First()
	if link.Length() == 0 {
		return "", false, nil
	}
	href, err = requiredAttr(link, "href", "next page link")
	if err != nil {
		return "", false, err
	}
	return href, true, nil
}
