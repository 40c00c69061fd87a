package driver

import (
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// resourceTypes maps config names to CDP resource types. Script is listed so
// a config can opt into blocking it; the default leaves scripts alone because
// the manuscripts table needs DataTables to run.
var resourceTypes = map[string]proto.NetworkResourceType{
	"Image":      proto.NetworkResourceTypeImage,
	"Stylesheet": proto.NetworkResourceTypeStylesheet,
	"Font":       proto.NetworkResourceTypeFont,
	"Media":      proto.NetworkResourceTypeMedia,
	"Script":     proto.NetworkResourceTypeScript,
}

// blockResources intercepts every request on the page and fails those whose
// resource type is configured away. Manuscript pages are mostly scans and
// styling; dropping images, styles, fonts and media cuts page weight without
// touching the table markup.
//
// The returned router is already running and is stopped with Stop. A nil
// router means nothing was configured to block.
func blockResources(page *rod.Page, typeNames []string) *rod.HijackRouter {
	blocked := make(map[proto.NetworkResourceType]bool, len(typeNames))
	for _, name := range typeNames {
		if rt, ok := resourceTypes[name]; ok {
			blocked[rt] = true
		}
	}
	if len(blocked) == 0 {
		return nil
	}

	router := page.HijackRequests()

	// Pattern "*" with an empty resource type intercepts everything; the
	// verdict is made per request.
	_ = router.Add("*", "", func(h *rod.Hijack) {
		if blocked[h.Request.Type()] {
			h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})

	// Run blocks until Stop, so it gets its own goroutine.
	go router.Run()

	return router
}
