// Package templates holds the dashboard page. The page is a hand-written
// templ component: all chart data arrives through the /sse/refresh stream as
// Datastar signals, and Plotly draws from those signals client-side.
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardPage)
		return err
	})
}

const dashboardPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>E-Commerce Analytics Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@main/bundles/datastar.js"></script>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 0; background: #f5f6fa; color: #2c3e50; }
header { background: #1f77b4; color: #fff; padding: 1rem 2rem; }
header h1 { margin: 0; font-size: 1.6rem; }
header p { margin: .25rem 0 0; opacity: .85; font-size: .9rem; }
.filters { display: flex; gap: 1rem; padding: 1rem 2rem; align-items: center; }
.filters select { padding: .4rem; border-radius: 4px; border: 1px solid #ccc; }
.metrics-row { display: grid; grid-template-columns: repeat(4, 1fr); gap: 1rem; padding: 0 2rem; }
.metric-card { background: #fff; border-left: 4px solid #1f77b4; border-radius: 6px; padding: 1rem; }
.metric-label { display: block; font-size: .8rem; color: #777; margin-bottom: .25rem; }
.grid { display: grid; grid-template-columns: 1fr 1fr; gap: 1rem; padding: 1rem 2rem; }
.panel { background: #fff; border-radius: 6px; padding: 1rem; }
.panel.wide { grid-column: span 2; }
#refresh-status { padding: 0 2rem 1rem; font-size: .8rem; color: #999; }
</style>
</head>
<body data-signals="{year: 'all', category: 'all', facets: {years: [], categories: []}, monthlyData: [], paretoData: [], treemapData: [], heatmapData: []}"
      data-on-load="@get('/sse/refresh')">
<header>
<h1>E-Commerce Analytics Dashboard</h1>
<p>Brazilian Olist dataset (2016-2018) &mdash; descriptive analytics</p>
</header>

<div class="filters">
<label>Year
<select data-bind-year data-on-change="@get('/sse/refresh?year=' + $year + '&category=' + encodeURIComponent($category))">
<option value="all">All Years</option>
<template data-for="y in $facets.years"><option data-attr-value="y" data-text="y"></option></template>
</select>
</label>
<label>Category
<select data-bind-category data-on-change="@get('/sse/refresh?year=' + $year + '&category=' + encodeURIComponent($category))">
<option value="all">All Categories</option>
<template data-for="c in $facets.categories"><option data-attr-value="c" data-text="c"></option></template>
</select>
</label>
</div>

<div id="metrics-content" class="metrics-row"></div>

<div class="grid">
<div class="panel"><h3>Monthly Orders</h3><div id="monthly-orders" data-effect="renderMonthly('monthly-orders', $monthlyData, 'orders', 'Orders')"></div></div>
<div class="panel"><h3>Monthly Revenue</h3><div id="monthly-revenue" data-effect="renderMonthly('monthly-revenue', $monthlyData, 'revenue', 'Revenue ($)')"></div></div>
<div class="panel wide"><h3>Pareto: Category Revenue</h3><div id="pareto-chart" data-effect="renderPareto($paretoData)"></div></div>
<div class="panel"><h3>Payment Methods by Category</h3><div id="treemap-chart" data-effect="renderTreemap($treemapData)"></div></div>
<div class="panel"><h3>Payment Method Evolution (%)</h3><div id="heatmap-chart" data-effect="renderHeatmap($heatmapData)"></div></div>
</div>

<div id="refresh-status"></div>

<script>
function renderMonthly(el, rows, field, label) {
  if (!rows) return;
  const byYear = {};
  rows.forEach(r => { (byYear[r.year] = byYear[r.year] || []).push(r); });
  const traces = Object.keys(byYear).sort().map(y => ({
    x: byYear[y].map(r => r.month),
    y: byYear[y].map(r => r[field]),
    mode: 'lines+markers', name: y, line: {width: 3}
  }));
  Plotly.react(el, traces, {xaxis: {title: 'Month', dtick: 1}, yaxis: {title: label}, height: 360, margin: {t: 20}});
}

function renderPareto(rows) {
  if (!rows) return;
  const cats = rows.map(r => r.category);
  Plotly.react('pareto-chart', [
    {x: cats, y: rows.map(r => r.revenue), type: 'bar', name: 'Revenue', marker: {color: 'skyblue'}},
    {x: cats, y: rows.map(r => r.cumulative_pct), mode: 'lines+markers', name: 'Cumulative %', yaxis: 'y2', line: {color: 'red', width: 3}}
  ], {
    xaxis: {tickangle: 45},
    yaxis: {title: 'Revenue ($)'},
    yaxis2: {title: 'Cumulative %', overlaying: 'y', side: 'right', range: [0, 100]},
    shapes: [{type: 'line', xref: 'paper', x0: 0, x1: 1, yref: 'y2', y0: 80, y1: 80, line: {dash: 'dash', color: 'green'}}],
    height: 420, margin: {t: 20}
  });
}

function renderTreemap(rows) {
  if (!rows || !rows.length) return;
  const labels = [], parents = [], values = [];
  const cats = [...new Set(rows.map(r => r.category))];
  cats.forEach(c => { labels.push(c); parents.push(''); values.push(0); });
  rows.forEach(r => {
    labels.push(r.category + ' / ' + r.payment_method);
    parents.push(r.category);
    values.push(r.revenue);
  });
  Plotly.react('treemap-chart', [{type: 'treemap', labels, parents, values, branchvalues: 'remainder'}], {height: 380, margin: {t: 20}});
}

function renderHeatmap(rows) {
  if (!rows || !rows.length) return;
  const periods = [...new Set(rows.map(r => r.period))].sort();
  const methods = [...new Set(rows.map(r => r.payment_method))].sort();
  const z = periods.map(p => methods.map(m => {
    const hit = rows.find(r => r.period === p && r.payment_method === m);
    return hit ? hit.pct : null;
  }));
  Plotly.react('heatmap-chart', [{type: 'heatmap', z, x: methods, y: periods, colorscale: 'YlOrRd', hoverongaps: false}], {height: 380, margin: {t: 20}});
}
</script>
</body>
</html>
`
