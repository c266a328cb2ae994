package web

import (
	"encoding/json"
	"fmt"
	"io"
)

// writeEmbedScript writes the parent-side embed loader. The configured
// site origin is baked in so the message handler can reject resize
// messages from anywhere else.
func writeEmbedScript(w io.Writer, siteOrigin string) {
	// JSON-encoding the origin keeps it safe inside a JS string literal.
	origin, err := json.Marshal(siteOrigin)
	if err != nil {
		origin = []byte(`""`)
	}

	fmt.Fprintf(w, `(function () {
  "use strict";

  var ORIGIN = %s;

  function mount(el) {
    var id = el.getAttribute("data-timecap-embed");
    if (!id) return;
    var iframe = document.createElement("iframe");
    iframe.src = ORIGIN + "/embed/" + encodeURIComponent(id);
    iframe.style.width = "100%%";
    iframe.style.border = "0";
    iframe.setAttribute("title", "timecap timeline");
    iframe.setAttribute("loading", "lazy");
    el.appendChild(iframe);
    return iframe;
  }

  var frames = [];
  function mountAll() {
    var els = document.querySelectorAll("[data-timecap-embed]");
    for (var i = 0; i < els.length; i++) {
      var f = mount(els[i]);
      if (f) frames.push(f);
    }
  }

  function pageTheme() {
    var t = document.documentElement.getAttribute("data-theme");
    return t === "dark" ? "dark" : "light";
  }

  function frameFor(source) {
    for (var i = 0; i < frames.length; i++) {
      if (frames[i].contentWindow === source) return frames[i];
    }
    return null;
  }

  window.addEventListener("message", function (event) {
    if (event.origin !== ORIGIN) return;
    var msg = event.data;
    if (!msg || !msg.type) return;
    var frame = frameFor(event.source);
    if (!frame) return;
    if (msg.type === "timecapsule-resize") {
      var height = parseInt(msg.height, 10);
      if (!isFinite(height) || height <= 0) return;
      frame.style.height = height + "px";
    } else if (msg.type === "timecapsule-request-theme") {
      frame.contentWindow.postMessage(
        { type: "timecapsule-theme", theme: pageTheme() }, ORIGIN);
    }
  });

  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", mountAll);
  } else {
    mountAll();
  }
})();
`, origin)
}
