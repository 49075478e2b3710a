package browser

import (
	"fmt"
	"sync"

	"github.com/entrhq/webtap/pkg/capture"
)

// BindingName is the host function exposed into every page context. The
// instrumentation script multiplexes both bridge channels through it.
const BindingName = "__webtapEmit"

var (
	// The script only depends on contract constants, render it once.
	cachedScript     string
	cachedScriptOnce sync.Once
)

// InstrumentationScript returns the JavaScript installed into each page
// context before any page script executes. It wraps console, window error
// events, fetch and XMLHttpRequest, keeping the original behavior intact and
// forwarding structured messages over the bridge binding.
func InstrumentationScript() string {
	cachedScriptOnce.Do(func() {
		cachedScript = fmt.Sprintf(scriptTemplate,
			capture.RequestBodyLimit,
			capture.ResponseBodyLimit,
			capture.TruncationMarker,
			BindingName,
			capture.ChannelConsoleLog,
			capture.ChannelNetworkLog,
		)
	})
	return cachedScript
}

// scriptTemplate holds the instrumentation source. Interception is strictly
// observational: every wrapper calls through to the original, and no failure
// inside a wrapper may escape into page code.
const scriptTemplate = `
(() => {
  'use strict';
  if (window.__webtap && window.__webtap.installed) { return; }

  const REQUEST_BODY_LIMIT = %d;
  const RESPONSE_BODY_LIMIT = %d;
  const TRUNCATION_MARKER = '%s';
  const BINDING = '%s';
  const CHANNEL_CONSOLE = '%s';
  const CHANNEL_NETWORK = '%s';
  const LEVELS = ['log', 'info', 'warn', 'error', 'debug'];

  const handle = {
    installed: true,
    originals: {
      console: {},
      fetch: window.fetch,
      xhrOpen: XMLHttpRequest.prototype.open,
      xhrSetRequestHeader: XMLHttpRequest.prototype.setRequestHeader,
      xhrSend: XMLHttpRequest.prototype.send,
    },
    listeners: {},
  };

  function post(channel, payload) {
    try {
      if (typeof window[BINDING] === 'function') {
        window[BINDING](channel, payload);
      }
    } catch (err) {
      // Send failures must never throw back into page code.
    }
  }

  function truncate(text, limit) {
    if (typeof text !== 'string' || text.length <= limit) { return text; }
    return text.slice(0, limit) + TRUNCATION_MARKER;
  }

  function serializeArg(value) {
    if (value === null) { return 'null'; }
    if (value === undefined) { return 'undefined'; }
    if (typeof value === 'object') {
      try { return JSON.stringify(value); } catch (err) { return String(value); }
    }
    return String(value);
  }

  function serializeBody(body, limit) {
    if (body === undefined || body === null) { return null; }
    if (typeof body === 'string') { return truncate(body, limit); }
    try { return truncate(JSON.stringify(body), limit); } catch (err) { return '[binary]'; }
  }

  function headersToObject(headers) {
    const out = {};
    if (!headers) { return out; }
    try {
      if (typeof headers.forEach === 'function') {
        headers.forEach((value, name) => { out[name] = String(value); });
      } else if (typeof headers === 'object') {
        for (const name of Object.keys(headers)) { out[name] = String(headers[name]); }
      }
    } catch (err) {
      // Partial headers are better than none.
    }
    return out;
  }

  function parseRawHeaders(raw) {
    const out = {};
    if (!raw) { return out; }
    for (const line of raw.trim().split(/[\r\n]+/)) {
      const idx = line.indexOf(': ');
      if (idx > 0) { out[line.slice(0, idx).toLowerCase()] = line.slice(idx + 2); }
    }
    return out;
  }

  for (const level of LEVELS) {
    const original = console[level];
    handle.originals.console[level] = original;
    console[level] = function (...args) {
      if (typeof original === 'function') { original.apply(console, args); }
      try {
        post(CHANNEL_CONSOLE, { level: level, message: args.map(serializeArg).join(' ') });
      } catch (err) {
        // Swallowed: capture is observational.
      }
    };
  }

  handle.listeners.error = (event) => {
    post(CHANNEL_CONSOLE, {
      level: 'error',
      message: event.message + ' at ' + event.filename + ':' + event.lineno + ':' + event.colno,
    });
  };
  window.addEventListener('error', handle.listeners.error);

  handle.listeners.rejection = (event) => {
    let reason = 'unknown';
    try {
      if (event.reason && event.reason.message) {
        reason = event.reason.message;
      } else if (event.reason !== undefined && event.reason !== null) {
        reason = String(event.reason);
      }
    } catch (err) {
      // Keep 'unknown'.
    }
    post(CHANNEL_CONSOLE, { level: 'error', message: 'Unhandled Promise Rejection: ' + reason });
  };
  window.addEventListener('unhandledrejection', handle.listeners.rejection);

  window.fetch = function (input, init) {
    const started = Date.now();
    let method = 'GET';
    let url = '';
    let requestHeaders = {};
    let requestBody = null;
    try {
      if (typeof Request === 'function' && input instanceof Request) {
        url = input.url;
        if (input.method) { method = input.method; }
        requestHeaders = headersToObject(input.headers);
      } else {
        url = String(input);
      }
      if (init) {
        if (init.method) { method = init.method; }
        if (init.headers) { requestHeaders = headersToObject(init.headers); }
        requestBody = serializeBody(init.body, REQUEST_BODY_LIMIT);
      }
    } catch (err) {
      // Capture state is best-effort; the call still goes through.
    }

    const result = handle.originals.fetch.call(window, input, init);
    return result.then((response) => {
      const duration = (Date.now() - started) / 1000;
      const send = (responseBody) => {
        let contentType = null;
        try { contentType = response.headers.get('content-type'); } catch (err) { contentType = null; }
        post(CHANNEL_NETWORK, {
          method: method,
          url: url,
          status: response.status,
          duration: duration,
          requestHeaders: requestHeaders,
          requestBody: requestBody,
          responseHeaders: headersToObject(response.headers),
          responseBody: responseBody,
          responseContentType: contentType,
        });
      };
      let clone = null;
      try { clone = response.clone(); } catch (err) { clone = null; }
      if (clone) {
        clone.text().then(
          (text) => send(truncate(text, RESPONSE_BODY_LIMIT)),
          () => send(null)
        );
      } else {
        send(null);
      }
      return response;
    }, (err) => {
      post(CHANNEL_NETWORK, {
        method: method,
        url: url,
        status: 0,
        duration: (Date.now() - started) / 1000,
        requestHeaders: requestHeaders,
        requestBody: requestBody,
        responseHeaders: null,
        responseBody: null,
        responseContentType: null,
      });
      // Re-raise on the returned promise. A caller without its own handler
      // still gets an unhandledrejection event for the failure.
      throw err;
    });
  };

  XMLHttpRequest.prototype.open = function (method, url, ...rest) {
    this.__webtapState = {
      method: method ? String(method).toUpperCase() : 'GET',
      url: String(url),
      requestHeaders: {},
    };
    return handle.originals.xhrOpen.call(this, method, url, ...rest);
  };

  XMLHttpRequest.prototype.setRequestHeader = function (name, value) {
    try {
      if (this.__webtapState) { this.__webtapState.requestHeaders[String(name)] = String(value); }
    } catch (err) {
      // Accumulator only; the real header still gets set below.
    }
    return handle.originals.xhrSetRequestHeader.call(this, name, value);
  };

  XMLHttpRequest.prototype.send = function (body) {
    const state = this.__webtapState || { method: 'GET', url: '', requestHeaders: {} };
    state.started = Date.now();
    state.requestBody = serializeBody(body, REQUEST_BODY_LIMIT);
    this.addEventListener('loadend', () => {
      try {
        const responseHeaders = parseRawHeaders(this.getAllResponseHeaders());
        let responseBody = null;
        try {
          if (typeof this.responseText === 'string') {
            responseBody = truncate(this.responseText, RESPONSE_BODY_LIMIT);
          }
        } catch (err) {
          responseBody = null;
        }
        post(CHANNEL_NETWORK, {
          method: state.method,
          url: state.url,
          status: this.status,
          duration: (Date.now() - state.started) / 1000,
          requestHeaders: state.requestHeaders,
          requestBody: state.requestBody,
          responseHeaders: responseHeaders,
          responseBody: responseBody,
          responseContentType: responseHeaders['content-type'] || null,
        });
      } catch (err) {
        // Swallowed: a capture failure must not disturb the exchange.
      }
    });
    return handle.originals.xhrSend.call(this, body);
  };

  handle.restore = function () {
    for (const level of LEVELS) { console[level] = handle.originals.console[level]; }
    window.fetch = handle.originals.fetch;
    XMLHttpRequest.prototype.open = handle.originals.xhrOpen;
    XMLHttpRequest.prototype.setRequestHeader = handle.originals.xhrSetRequestHeader;
    XMLHttpRequest.prototype.send = handle.originals.xhrSend;
    window.removeEventListener('error', handle.listeners.error);
    window.removeEventListener('unhandledrejection', handle.listeners.rejection);
    handle.installed = false;
  };

  window.__webtap = handle;
})();
`
