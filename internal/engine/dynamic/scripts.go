package dynamic

// Page-side scripts. Each is a single expression; %s receives the
// heuristics as a JSON object literal.

const snapshotScript = `(() => {
	const h = %s;
	const excluded = (el) => !!(h.excludedRegions && el.parentElement && el.parentElement.closest(h.excludedRegions));
	const source = (img) => img.currentSrc || img.src || img.getAttribute('data-src') || '';
	const heading = h.headingSelector ? document.querySelector(h.headingSelector) : null;
	const logos = [];
	const collect = (strategy, selector) => {
		if (!selector) return;
		document.querySelectorAll(selector).forEach((img) => {
			const url = source(img);
			if (!url) return;
			const r = img.getBoundingClientRect();
			logos.push({strategy, url, width: r.width, height: r.height, excluded: excluded(img)});
		});
	};
	collect('component', (h.logoComponentSelectors || []).join(', '));
	collect('container', h.logoContainerSelector);
	collect('heading', h.headingLogoSelector);
	return {
		url: location.href,
		heading: heading ? heading.textContent.trim() : '',
		title: document.title || '',
		logos,
	};
})()`

const imagesScript = `(() => {
	const h = %s;
	const selector = (h.screenSelectors || []).join(', ');
	if (!selector) return [];
	return Array.from(document.querySelectorAll(selector)).map((img) => ({
		src: img.currentSrc || img.src || img.getAttribute('data-src') || '',
		inListItem: !!(h.listItemSelector && img.parentElement && img.parentElement.closest(h.listItemSelector)),
	}));
})()`

const metricsScript = `(() => {
	const el = document.scrollingElement || document.documentElement;
	return {scrollY: window.scrollY, viewportHeight: window.innerHeight, scrollHeight: el.scrollHeight};
})()`

const scrollByScript = `window.scrollBy({top: %f, left: 0, behavior: 'smooth'})`

const scrollTopScript = `window.scrollTo({top: 0, left: 0, behavior: 'smooth'})`
